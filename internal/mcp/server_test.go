package mcp_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"aiken/internal/blueprint"
	"aiken/internal/codegen"
	"aiken/internal/mcp"
)

// identityCode is the CBOR-wrapped flat encoding of the identity
// program, enough to exercise blueprint transforms end to end.
const identityCode = "46010000200101"

func writeTestProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"aiken.toml":          "name = \"acme/escrow\"\nversion = \"1.0.0\"\n",
		"lib/escrow/utils.ak": "pub fn id(x) { x }\n\ntest id_holds() {\n  id(1) == 1\n}\n",
		"validators/lock.ak":  "validator lock {\n  spend(d, r, c) {\n    True\n  }\n}\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	code, err := hex.DecodeString(identityCode)
	if err != nil {
		t.Fatal(err)
	}
	digest, err := blueprint.ScriptHash("v2", code)
	if err != nil {
		t.Fatal(err)
	}
	bp := &blueprint.Blueprint{
		Preamble: blueprint.Preamble{Title: "acme/escrow", Version: "1.0.0", PlutusVersion: "v2"},
		Validators: []blueprint.Validator{{
			Title:        "lock",
			Parameters:   []blueprint.Argument{{Title: "owner"}},
			CompiledCode: identityCode,
			Hash:         hex.EncodeToString(digest),
		}},
	}
	if err := bp.Save(filepath.Join(root, blueprint.Filename)); err != nil {
		t.Fatal(err)
	}
	return root
}

func connect(t *testing.T, ctx context.Context, root string) *sdkmcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(root, "test", codegen.NopBackend{})
	t1, t2 := sdkmcp.NewInMemoryTransports()
	if _, err := srv.MCPServer.Connect(ctx, t1, nil); err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		for _, c := range res.Content {
			if tc, ok := c.(*sdkmcp.TextContent); ok {
				t.Fatalf("CallTool(%s) returned error: %s", name, tc.Text)
			}
		}
		t.Fatalf("CallTool(%s) returned error", name)
	}
	result := make(map[string]any)
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			if err := json.Unmarshal([]byte(tc.Text), &result); err != nil {
				t.Fatalf("unmarshal tool result: %v (text: %s)", err, tc.Text)
			}
			return result
		}
	}
	t.Fatal("no text content in tool result")
	return nil
}

func TestCheckProjectTool(t *testing.T) {
	ctx := context.Background()
	session := connect(t, ctx, writeTestProject(t))

	out := callTool(t, ctx, session, "check_project", map[string]any{})
	if out["failed"] != false {
		t.Errorf("failed = %v, want false (out: %v)", out["failed"], out)
	}
	if out["modules"] != float64(2) {
		t.Errorf("modules = %v, want 2", out["modules"])
	}
	if out["tests_skipped"] != true {
		t.Errorf("tests_skipped = %v, want true", out["tests_skipped"])
	}
}

func TestListModulesTool(t *testing.T) {
	ctx := context.Background()
	session := connect(t, ctx, writeTestProject(t))

	out := callTool(t, ctx, session, "list_modules", map[string]any{})
	mods, ok := out["modules"].([]any)
	if !ok || len(mods) != 2 {
		t.Fatalf("modules = %v, want 2 entries", out["modules"])
	}
	first := mods[0].(map[string]any)
	if first["name"] != "escrow/utils" || first["kind"] != "lib" {
		t.Errorf("first module = %v", first)
	}
}

func TestBlueprintInfoTool(t *testing.T) {
	ctx := context.Background()
	session := connect(t, ctx, writeTestProject(t))

	out := callTool(t, ctx, session, "blueprint_info", map[string]any{})
	if out["title"] != "acme/escrow" || out["plutus_version"] != "v2" {
		t.Errorf("preamble = %v", out)
	}
	if out["network"] != "preview" {
		t.Errorf("network = %v, want the preview default", out["network"])
	}
	validators := out["validators"].([]any)
	v := validators[0].(map[string]any)
	if v["parameters"] != float64(1) {
		t.Errorf("parameters = %v, want 1", v["parameters"])
	}
	if _, ok := v["address"]; ok {
		t.Error("address should be withheld while parameters remain")
	}
}

func TestApplyParameterTool(t *testing.T) {
	ctx := context.Background()
	root := writeTestProject(t)
	session := connect(t, ctx, root)

	out := callTool(t, ctx, session, "apply_parameter", map[string]any{
		"data_hex": "01",
		"write":    true,
	})
	if out["remaining_parameters"] != float64(0) {
		t.Errorf("remaining_parameters = %v, want 0", out["remaining_parameters"])
	}

	// write=true must persist the transform.
	bp, err := blueprint.LoadFromPath(filepath.Join(root, blueprint.Filename))
	if err != nil {
		t.Fatal(err)
	}
	if bp.Validators[0].CompiledCode != out["compiled_code"] {
		t.Error("written blueprint does not match the tool output")
	}
	if problems := bp.Validate(); len(problems) != 0 {
		t.Errorf("written blueprint has problems: %v", problems)
	}

	// Once applied, blueprint_info exposes an address.
	info := callTool(t, ctx, session, "blueprint_info", map[string]any{})
	v := info["validators"].([]any)[0].(map[string]any)
	addr, _ := v["address"].(string)
	if addr == "" {
		t.Error("no address after all parameters were applied")
	}
}
