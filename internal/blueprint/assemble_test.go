package blueprint

import (
	"encoding/hex"
	"testing"

	"aiken/internal/config"
	"aiken/internal/syntax"
)

func TestAssemble(t *testing.T) {
	cfg := &config.Config{
		Name:          "acme/escrow",
		Version:       "1.0.0",
		PlutusVersion: "v2",
		Licences:      []string{"Apache-2.0"},
		Description:   "Escrow contracts",
	}
	code, _ := hex.DecodeString(identityCode)

	compiled := []CompiledValidator{
		{
			Module: "escrow",
			Validator: syntax.Validator{
				Name:   "lock",
				Docs:   []string{"Locks funds until the deadline."},
				Params: []syntax.Param{{Name: "owner", Type: "ByteArray"}},
				Handlers: []syntax.Handler{{
					Name: "spend",
					Params: []syntax.Param{
						{Name: "datum"}, {Name: "redeemer"}, {Name: "ctx"},
					},
				}},
			},
			Code: code,
		},
		{
			Module: "tokens",
			Validator: syntax.Validator{
				Name: "supply",
				Handlers: []syntax.Handler{{
					Name:   "mint",
					Params: []syntax.Param{{Name: "redeemer"}, {Name: "policy_id"}},
				}},
			},
			Code: code,
		},
	}

	bp, err := Assemble(cfg, "dev", compiled)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if bp.Preamble.Title != "acme/escrow" || bp.Preamble.PlutusVersion != "v2" {
		t.Errorf("preamble = %+v", bp.Preamble)
	}
	if bp.Preamble.License != "Apache-2.0" {
		t.Errorf("License = %q", bp.Preamble.License)
	}
	if bp.Preamble.Compiler == nil || bp.Preamble.Compiler.Name != "aiken" {
		t.Errorf("Compiler = %+v", bp.Preamble.Compiler)
	}

	if len(bp.Validators) != 2 {
		t.Fatalf("validators = %d, want 2", len(bp.Validators))
	}

	lock := bp.Validators[0]
	if lock.Title != "escrow.lock" {
		t.Errorf("Title = %q, want escrow.lock", lock.Title)
	}
	if lock.Description != "Locks funds until the deadline." {
		t.Errorf("Description = %q", lock.Description)
	}
	if lock.Datum == nil || lock.Datum.Title != "datum" {
		t.Errorf("spend validator should expose a datum, got %+v", lock.Datum)
	}
	if lock.Redeemer == nil || lock.Redeemer.Title != "redeemer" {
		t.Errorf("Redeemer = %+v", lock.Redeemer)
	}
	if len(lock.Parameters) != 1 || lock.Parameters[0].Title != "owner" {
		t.Errorf("Parameters = %+v", lock.Parameters)
	}
	if lock.CompiledCode != identityCode {
		t.Errorf("CompiledCode = %s", lock.CompiledCode)
	}
	digest, err := ScriptHash("v2", code)
	if err != nil {
		t.Fatal(err)
	}
	if lock.Hash != hex.EncodeToString(digest) {
		t.Error("hash does not match the code")
	}

	supply := bp.Validators[1]
	if supply.Datum != nil {
		t.Error("mint validator should not expose a datum")
	}
	if supply.Redeemer == nil || supply.Redeemer.Title != "redeemer" {
		t.Errorf("Redeemer = %+v", supply.Redeemer)
	}

	if problems := bp.Validate(); len(problems) != 0 {
		t.Errorf("assembled blueprint has problems: %v", problems)
	}
}

func TestAssembleDuplicateTitles(t *testing.T) {
	cfg := &config.Config{Name: "a/b", Version: "0.0.0"}
	compiled := []CompiledValidator{
		{Module: "m", Validator: syntax.Validator{Name: "v"}},
		{Module: "m", Validator: syntax.Validator{Name: "v"}},
	}
	if _, err := Assemble(cfg, "dev", compiled); err == nil {
		t.Fatal("expected error for duplicate titles")
	}
}

func TestCompiledValidatorTitle(t *testing.T) {
	unnamed := CompiledValidator{Module: "escrow"}
	if got := unnamed.Title(); got != "escrow" {
		t.Errorf("Title = %q, want escrow", got)
	}
	named := CompiledValidator{Module: "escrow", Validator: syntax.Validator{Name: "lock"}}
	if got := named.Title(); got != "escrow.lock" {
		t.Errorf("Title = %q, want escrow.lock", got)
	}
}
