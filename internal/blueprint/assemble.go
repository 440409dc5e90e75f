package blueprint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"aiken/internal/config"
	"aiken/internal/syntax"
)

// dataSchema is the opaque schema emitted for every argument slot. The
// toolchain does not perform type inference; concrete schemas belong to
// the codegen backend's richer output when available.
var dataSchema = json.RawMessage(`{"$ref":"#/definitions/Data"}`)

// CompiledValidator pairs a scanned validator block with the code the
// codegen backend produced for it.
type CompiledValidator struct {
	Module    string
	Validator syntax.Validator
	// Code is the CBOR-wrapped flat-encoded program.
	Code []byte
}

// Title is the validator's blueprint title: module name, then the block
// name when the block is named.
func (cv CompiledValidator) Title() string {
	if cv.Validator.Name == "" {
		return cv.Module
	}
	return cv.Module + "." + cv.Validator.Name
}

// Assemble builds a blueprint document from the project manifest and the
// compiled validators.
func Assemble(cfg *config.Config, compilerVersion string, compiled []CompiledValidator) (*Blueprint, error) {
	bp := &Blueprint{
		Preamble: Preamble{
			Title:         cfg.Name,
			Description:   cfg.Description,
			Version:       cfg.Version,
			PlutusVersion: cfg.Plutus(),
			Compiler:      &Compiler{Name: "aiken", Version: compilerVersion},
		},
		Definitions: map[string]json.RawMessage{
			"Data": json.RawMessage(`{"title":"Data","description":"Any Plutus data."}`),
		},
	}
	if len(cfg.Licences) > 0 {
		bp.Preamble.License = cfg.Licences[0]
	}

	seen := make(map[string]bool)
	for _, cv := range compiled {
		title := cv.Title()
		if seen[title] {
			return nil, fmt.Errorf("blueprint: duplicate validator title %q", title)
		}
		seen[title] = true

		entry := Validator{Title: title}
		if len(cv.Validator.Docs) > 0 {
			entry.Description = cv.Validator.Docs[0]
		}
		for _, p := range cv.Validator.Params {
			entry.Parameters = append(entry.Parameters, Argument{Title: p.Name, Schema: dataSchema})
		}
		if h := findHandler(cv.Validator, "spend"); h != nil && len(h.Params) == 3 {
			entry.Datum = &Argument{Title: h.Params[0].Name, Schema: dataSchema}
			entry.Redeemer = &Argument{Title: h.Params[1].Name, Schema: dataSchema}
		} else if h := findHandler(cv.Validator, "mint"); h != nil && len(h.Params) == 2 {
			entry.Redeemer = &Argument{Title: h.Params[0].Name, Schema: dataSchema}
		} else if len(cv.Validator.Handlers) > 0 {
			h := cv.Validator.Handlers[0]
			if len(h.Params) >= 2 {
				entry.Redeemer = &Argument{Title: h.Params[len(h.Params)-2].Name, Schema: dataSchema}
			}
		}

		if len(cv.Code) > 0 {
			digest, err := ScriptHash(bp.Preamble.PlutusVersion, cv.Code)
			if err != nil {
				return nil, err
			}
			entry.CompiledCode = hex.EncodeToString(cv.Code)
			entry.Hash = hex.EncodeToString(digest)
		}
		bp.Validators = append(bp.Validators, entry)
	}
	return bp, nil
}

func findHandler(v syntax.Validator, name string) *syntax.Handler {
	for i := range v.Handlers {
		if v.Handlers[i].Name == name {
			return &v.Handlers[i]
		}
	}
	return nil
}
