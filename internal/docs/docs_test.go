package docs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aiken/internal/config"
	"aiken/internal/project"
	"aiken/internal/syntax"
)

func TestGenerate(t *testing.T) {
	p := &project.Project{
		Root:   t.TempDir(),
		Config: &config.Config{Name: "acme/escrow", Version: "1.0.0"},
	}
	mods := []*syntax.Module{
		{
			Name: "escrow",
			Docs: []string{"Escrow entry points."},
			Functions: []syntax.Function{
				{
					Name: "release", Public: true,
					Docs:   []string{"Releases the funds."},
					Params: []syntax.Param{{Name: "when", Type: "Int"}},
					Return: "Bool",
				},
				{Name: "hidden"},
			},
			Validators: []syntax.Validator{{
				Name:     "lock",
				Handlers: []syntax.Handler{{Name: "spend", Params: make([]syntax.Param, 3)}},
			}},
		},
		{
			Name:      "escrow/types",
			Types:     []syntax.TypeDef{{Name: "State", Public: true}},
			Constants: []syntax.Constant{{Name: "fee", Type: "Int", Public: true}},
		},
	}

	outDir := filepath.Join(t.TempDir(), "docs")
	if err := Generate(p, mods, outDir); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, name := range []string{"index.html", "style.css", "search.json", "escrow.html", "escrow/types.html"} {
		if _, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	index, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"acme/escrow", "escrow.html", "Escrow entry points."} {
		if !strings.Contains(string(index), want) {
			t.Errorf("index.html missing %q", want)
		}
	}

	page, err := os.ReadFile(filepath.Join(outDir, "escrow.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "pub fn release(when: Int) -&gt; Bool") {
		t.Errorf("module page missing rendered signature:\n%s", page)
	}
	if strings.Contains(string(page), "hidden") {
		t.Error("private function leaked into the docs")
	}

	// Nested pages link the stylesheet relative to the docs root.
	nested, err := os.ReadFile(filepath.Join(outDir, "escrow", "types.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(nested), `href="../style.css"`) {
		t.Error("nested page does not link ../style.css")
	}

	raw, err := os.ReadFile(filepath.Join(outDir, "search.json"))
	if err != nil {
		t.Fatal(err)
	}
	var entries []SearchEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatalf("search.json: %v", err)
	}
	kinds := make(map[string]int)
	for _, e := range entries {
		kinds[e.Kind]++
	}
	if kinds["module"] != 2 || kinds["fn"] != 1 || kinds["validator"] != 1 || kinds["type"] != 1 || kinds["const"] != 1 {
		t.Errorf("unexpected search index composition: %v", kinds)
	}
}

func TestSignature(t *testing.T) {
	tests := []struct {
		name string
		fn   syntax.Function
		want string
	}{
		{
			name: "plain",
			fn:   syntax.Function{Name: "id", Params: []syntax.Param{{Name: "x"}}},
			want: "fn id(x)",
		},
		{
			name: "labeled and typed",
			fn: syntax.Function{
				Name: "pay", Public: true,
				Params: []syntax.Param{
					{Name: "self", Type: "Wallet"},
					{Label: "amount", Name: "qty", Type: "Int"},
				},
				Return: "Bool",
			},
			want: "pub fn pay(self: Wallet, amount qty: Int) -> Bool",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Signature(tt.fn); got != tt.want {
				t.Errorf("Signature = %q, want %q", got, tt.want)
			}
		})
	}
}
