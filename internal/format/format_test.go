package format

import (
	"strings"
	"testing"
)

func TestTerminalTable(t *testing.T) {
	tbl := New(Terminal)
	tbl.Head("Module", "Tests")
	tbl.Add("escrow", 3)
	tbl.Add("tokens", 1)
	tbl.Foot("total", 4)

	out := tbl.Render()
	for _, want := range []string{"MODULE", "escrow", "tokens", "TOTAL", "4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownTable(t *testing.T) {
	tbl := New(Markdown)
	tbl.Head("Name", "Result")
	tbl.Add("holds", "PASS")

	out := tbl.Render()
	if !strings.Contains(out, "| holds | PASS |") {
		t.Errorf("not a markdown table:\n%s", out)
	}
}

func TestAlignColumn(t *testing.T) {
	tbl := New(Terminal)
	tbl.Head("Name", "Count")
	tbl.AlignColumn(2, AlignRight)
	tbl.AlignColumn(1, AlignLeft)
	tbl.Add("a", 1)
	tbl.Add("bb", 22)

	out := tbl.Render()
	if !strings.Contains(out, " 1") || !strings.Contains(out, "22") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
