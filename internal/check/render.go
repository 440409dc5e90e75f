package check

import (
	"fmt"
	"strings"

	"aiken/internal/config"
	"aiken/internal/format"
)

// Summary renders the check outcome for the terminal: one table of
// diagnostics, one of test results, and a closing line.
func (r *Result) Summary(mode format.Mode) string {
	var sb strings.Builder

	if len(r.Diagnostics) > 0 {
		t := format.New(mode)
		t.Head("Severity", "Location", "Message")
		for _, d := range r.Diagnostics {
			loc := d.File
			if d.Line > 0 {
				loc = fmt.Sprintf("%s:%d", d.File, d.Line)
			}
			t.Add(string(d.Severity), loc, d.Message)
		}
		sb.WriteString(t.Render())
		sb.WriteByte('\n')
	}

	if len(r.Tests) > 0 {
		t := format.New(mode)
		t.Head("Module", "Test", "Result")
		passed := 0
		for _, tr := range r.Tests {
			outcome := "FAIL"
			if tr.Passed {
				outcome = "PASS"
				passed++
			}
			t.Add(tr.Module, tr.Name, outcome)
		}
		t.Foot("", "passed", fmt.Sprintf("%d/%d", passed, len(r.Tests)))
		sb.WriteString(t.Render())
		sb.WriteByte('\n')
	}

	errs, warns := 0, 0
	for _, d := range r.Diagnostics {
		if d.Severity == config.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	fmt.Fprintf(&sb, "%d module(s) checked, %d error(s), %d warning(s)\n", len(r.Modules), errs, warns)
	if r.TestsSkipped {
		sb.WriteString("tests collected but not run: no codegen backend configured\n")
	}
	return sb.String()
}
