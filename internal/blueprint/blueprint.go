// Package blueprint reads, writes and transforms the Plutus blueprint
// (plutus.json): the interoperable document summarizing a compiled
// project, with per-validator compiled code and hash digests used for
// addresses.
package blueprint

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Filename is the blueprint name at the project root.
const Filename = "plutus.json"

// ErrValidatorNotFound is returned when a lookup by title fails.
var ErrValidatorNotFound = errors.New("blueprint: validator not found")

// Blueprint is the top-level plutus.json document.
type Blueprint struct {
	Preamble    Preamble                   `json:"preamble"`
	Validators  []Validator                `json:"validators"`
	Definitions map[string]json.RawMessage `json:"definitions,omitempty"`
}

// Preamble carries project metadata copied from aiken.toml.
type Preamble struct {
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Version       string    `json:"version"`
	PlutusVersion string    `json:"plutusVersion"`
	Compiler      *Compiler `json:"compiler,omitempty"`
	License       string    `json:"license,omitempty"`
}

// Compiler identifies the toolchain that produced the document.
type Compiler struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Validator is one compiled validator entry.
type Validator struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Datum       *Argument  `json:"datum,omitempty"`
	Redeemer    *Argument  `json:"redeemer,omitempty"`
	Parameters  []Argument `json:"parameters,omitempty"`
	// CompiledCode is the hex of the CBOR-wrapped flat-encoded program.
	CompiledCode string `json:"compiledCode,omitempty"`
	// Hash is the hex of the 28-byte script hash digest.
	Hash string `json:"hash,omitempty"`
}

// Argument describes a datum, redeemer or parameter slot.
type Argument struct {
	Title  string          `json:"title,omitempty"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

// Load parses a blueprint document.
func Load(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("blueprint: parse %s: %w", Filename, err)
	}
	return &bp, nil
}

// LoadFromPath reads and parses the blueprint at path.
func LoadFromPath(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blueprint: read %s: %w", path, err)
	}
	return Load(data)
}

// Save writes the blueprint with stable indentation.
func (b *Blueprint) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("blueprint: marshal: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("blueprint: write %s: %w", path, err)
	}
	return nil
}

// Find returns the validator with the given title. With an empty title
// and exactly one validator, that validator is returned.
func (b *Blueprint) Find(title string) (*Validator, error) {
	if title == "" {
		if len(b.Validators) == 1 {
			return &b.Validators[0], nil
		}
		return nil, fmt.Errorf("blueprint: %d validators, pick one with --validator", len(b.Validators))
	}
	for i := range b.Validators {
		if b.Validators[i].Title == title {
			return &b.Validators[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrValidatorNotFound, title)
}

// Validate checks document-level invariants: required preamble fields,
// unique validator titles, decodable code and digests that match the
// code they claim to digest.
func (b *Blueprint) Validate() []string {
	var problems []string
	if b.Preamble.Title == "" {
		problems = append(problems, "preamble.title is required")
	}
	switch b.Preamble.PlutusVersion {
	case "v1", "v2", "v3":
	default:
		problems = append(problems, fmt.Sprintf("preamble.plutusVersion %q is not one of v1, v2, v3", b.Preamble.PlutusVersion))
	}

	seen := make(map[string]bool)
	for _, v := range b.Validators {
		where := fmt.Sprintf("validator %q", v.Title)
		if v.Title == "" {
			problems = append(problems, "validator with empty title")
			continue
		}
		if seen[v.Title] {
			problems = append(problems, where+": duplicate title")
		}
		seen[v.Title] = true

		if v.CompiledCode == "" {
			continue
		}
		code, err := hex.DecodeString(v.CompiledCode)
		if err != nil {
			problems = append(problems, where+": compiledCode is not hex")
			continue
		}
		if v.Hash == "" {
			continue
		}
		digest, err := hex.DecodeString(v.Hash)
		if err != nil || len(digest) != HashSize {
			problems = append(problems, fmt.Sprintf("%s: hash is not a %d-byte hex digest", where, HashSize))
			continue
		}
		want, err := ScriptHash(b.Preamble.PlutusVersion, code)
		if err != nil {
			problems = append(problems, where+": "+err.Error())
			continue
		}
		if hex.EncodeToString(want) != v.Hash {
			problems = append(problems, where+": hash does not match compiledCode")
		}
	}
	return problems
}
