package syntax

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	useRe       = regexp.MustCompile(`^use\s+([a-z0-9_/]+)(?:\.\{([^}]*)\})?(?:\s+as\s+([a-z0-9_]+))?\s*$`)
	constRe     = regexp.MustCompile(`^(pub\s+)?const\s+([a-z_][a-z0-9_]*)\s*(?::\s*([^=]+?))?\s*=`)
	typeRe      = regexp.MustCompile(`^(pub\s+)?(opaque\s+)?type\s+([A-Z][A-Za-z0-9_]*)`)
	fnRe        = regexp.MustCompile(`^(pub\s+)?fn\s+([a-z_][a-z0-9_]*)\s*\(`)
	testRe      = regexp.MustCompile(`^test\s+([a-z_][a-z0-9_]*)\s*\(`)
	validatorRe = regexp.MustCompile(`^validator(?:\s+([a-z_][a-z0-9_]*))?\s*(\(|\{)`)
	handlerRe   = regexp.MustCompile(`^(?:fn\s+)?([a-z_][a-z0-9_]*)\s*\(`)
)

// handlerArity maps the well-known validator handler names to their
// required argument count. Handlers not listed here must take 2 or 3
// arguments.
var handlerArity = map[string]int{
	"spend":    3,
	"mint":     2,
	"withdraw": 2,
	"publish":  2,
	"else":     1, // catch-all fallback, takes the script context only
}

// ScanFile reads and scans one module from disk.
func ScanFile(name, path string) (*Module, []Problem, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("syntax: read %s: %w", path, err)
	}
	mod, problems := Scan(name, path, src)
	return mod, problems, nil
}

// Scan parses the declaration surface of one module. Scanning never
// fails: malformed input produces problems alongside whatever could be
// recovered.
func Scan(name, file string, src []byte) (*Module, []Problem) {
	mod := &Module{Name: name, File: file}
	var problems []Problem

	lines := strings.Split(string(src), "\n")
	depth := 0
	var pendingDocs []string
	var openValidator *Validator

	takeDocs := func() []string {
		docs := pendingDocs
		pendingDocs = nil
		return docs
	}

	for i := 0; i < len(lines); i++ {
		lineNo := i + 1
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case strings.HasPrefix(trimmed, "////"):
			if depth == 0 {
				mod.Docs = append(mod.Docs, strings.TrimPrefix(strings.TrimPrefix(trimmed, "////"), " "))
			}
			continue
		case strings.HasPrefix(trimmed, "///"):
			pendingDocs = append(pendingDocs, strings.TrimPrefix(strings.TrimPrefix(trimmed, "///"), " "))
			continue
		case strings.HasPrefix(trimmed, "//"):
			continue
		}

		code := stripLineComment(trimmed)
		if code == "" {
			pendingDocs = nil
			continue
		}

		consumed := 1
		switch {
		case depth == 0 && useRe.MatchString(code):
			m := useRe.FindStringSubmatch(code)
			imp := Import{Line: lineNo, Module: m[1], Alias: m[3]}
			if m[2] != "" {
				for _, part := range strings.Split(m[2], ",") {
					if p := strings.TrimSpace(part); p != "" {
						imp.Unqualified = append(imp.Unqualified, p)
					}
				}
			}
			mod.Imports = append(mod.Imports, imp)
			pendingDocs = nil

		case depth == 0 && constRe.MatchString(code):
			m := constRe.FindStringSubmatch(code)
			mod.Constants = append(mod.Constants, Constant{
				Line:   lineNo,
				Name:   m[2],
				Type:   strings.TrimSpace(m[3]),
				Public: m[1] != "",
				Docs:   takeDocs(),
			})

		case depth == 0 && typeRe.MatchString(code):
			m := typeRe.FindStringSubmatch(code)
			mod.Types = append(mod.Types, TypeDef{
				Line:   lineNo,
				Name:   m[3],
				Public: m[1] != "",
				Opaque: m[2] != "",
				Docs:   takeDocs(),
			})

		case depth == 0 && testRe.MatchString(code):
			m := testRe.FindStringSubmatch(code)
			_, n, ok := gatherSignature(lines, i)
			if !ok {
				problems = append(problems, Problem{Line: lineNo, Message: fmt.Sprintf("unterminated signature for test %s", m[1])})
			}
			consumed = n
			mod.Tests = append(mod.Tests, Test{Line: lineNo, Name: m[1], Docs: takeDocs()})

		case depth == 0 && fnRe.MatchString(code):
			m := fnRe.FindStringSubmatch(code)
			sig, n, ok := gatherSignature(lines, i)
			if !ok {
				problems = append(problems, Problem{Line: lineNo, Message: fmt.Sprintf("unterminated signature for fn %s", m[2])})
			}
			consumed = n
			params, ret := parseSignature(sig)
			mod.Functions = append(mod.Functions, Function{
				Line:   lineNo,
				Name:   m[2],
				Public: m[1] != "",
				Docs:   takeDocs(),
				Params: params,
				Return: ret,
			})

		case depth == 0 && validatorRe.MatchString(code):
			m := validatorRe.FindStringSubmatch(code)
			v := Validator{Line: lineNo, Name: m[1], Docs: takeDocs()}
			if m[2] == "(" {
				sig, n, ok := gatherSignature(lines, i)
				if !ok {
					problems = append(problems, Problem{Line: lineNo, Message: "unterminated validator parameter list"})
				}
				consumed = n
				v.Params, _ = parseSignature(sig)
			}
			mod.Validators = append(mod.Validators, v)
			openValidator = &mod.Validators[len(mod.Validators)-1]

		case depth == 1 && openValidator != nil && handlerRe.MatchString(code):
			m := handlerRe.FindStringSubmatch(code)
			sig, n, ok := gatherSignature(lines, i)
			if !ok {
				problems = append(problems, Problem{Line: lineNo, Message: fmt.Sprintf("unterminated signature for handler %s", m[1])})
			}
			consumed = n
			params, _ := parseSignature(sig)
			h := Handler{Line: lineNo, Name: m[1], Params: params}
			if p := arityProblem(h); p != "" {
				problems = append(problems, Problem{Line: lineNo, Message: p})
			}
			openValidator.Handlers = append(openValidator.Handlers, h)

		default:
			if depth == 0 {
				pendingDocs = nil
			}
		}

		for j := i; j < i+consumed && j < len(lines); j++ {
			depth += braceDelta(stripLineComment(strings.TrimSpace(lines[j])))
		}
		if depth <= 0 {
			depth = 0
			openValidator = nil
		}
		i += consumed - 1
	}

	if depth != 0 {
		problems = append(problems, Problem{Line: len(lines), Message: "unbalanced braces at end of module"})
	}
	return mod, problems
}

// arityProblem checks a handler against the validator arity rules: a
// well-known handler has a fixed argument count, anything else must take
// 2 or 3 arguments.
func arityProblem(h Handler) string {
	n := len(h.Params)
	if want, known := handlerArity[h.Name]; known {
		if n != want {
			return fmt.Sprintf("handler %s takes %d argument(s), expected %d", h.Name, n, want)
		}
		return ""
	}
	if n < 2 || n > 3 {
		return fmt.Sprintf("handler %s takes %d argument(s), expected 2 or 3", h.Name, n)
	}
	return ""
}

// gatherSignature joins lines starting at index i until the first
// parenthesis group closes, returning the joined text, the number of
// lines consumed, and whether the group actually closed.
func gatherSignature(lines []string, i int) (string, int, bool) {
	var sb strings.Builder
	parens := 0
	opened := false
	for j := i; j < len(lines); j++ {
		code := stripLineComment(strings.TrimSpace(lines[j]))
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(code)
		inString := false
		for k := 0; k < len(code); k++ {
			c := code[k]
			if inString {
				if c == '\\' {
					k++
				} else if c == '"' {
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '(':
				parens++
				opened = true
			case ')':
				parens--
			}
		}
		if opened && parens <= 0 {
			return sb.String(), j - i + 1, true
		}
	}
	return sb.String(), len(lines) - i, false
}

// parseSignature extracts the parameter list and return type from a
// joined signature such as "pub fn pay(amount qty: Int) -> Bool {".
func parseSignature(sig string) ([]Param, string) {
	open := strings.IndexByte(sig, '(')
	if open < 0 {
		return nil, ""
	}
	depth := 0
	closeIdx := -1
	for i := open; i < len(sig); i++ {
		switch sig[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				closeIdx = i
			}
		}
		if closeIdx >= 0 {
			break
		}
	}
	if closeIdx < 0 {
		return nil, ""
	}

	var params []Param
	for _, raw := range splitTopLevel(sig[open+1:closeIdx], ',') {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		params = append(params, parseParam(raw))
	}

	rest := sig[closeIdx+1:]
	ret := ""
	if idx := strings.Index(rest, "->"); idx >= 0 {
		ret = rest[idx+2:]
		if brace := strings.IndexByte(ret, '{'); brace >= 0 {
			ret = ret[:brace]
		}
		ret = strings.TrimSpace(ret)
	}
	return params, ret
}

// parseParam handles `name`, `name: Type` and the labeled form
// `label name: Type`.
func parseParam(raw string) Param {
	var p Param
	left := raw
	if idx := indexTopLevel(raw, ':'); idx >= 0 {
		left = strings.TrimSpace(raw[:idx])
		p.Type = strings.TrimSpace(raw[idx+1:])
	}
	words := strings.Fields(left)
	switch len(words) {
	case 1:
		p.Name = words[0]
	case 2:
		p.Label = words[0]
		p.Name = words[1]
	default:
		p.Name = left
	}
	return p
}

// splitTopLevel splits s on sep, ignoring separators nested inside
// parentheses, angle brackets or square brackets.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

func indexTopLevel(s string, sep byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			depth--
		case sep:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripLineComment removes a trailing // comment, respecting string
// literals.
func stripLineComment(code string) string {
	inString := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		if c == '/' && i+1 < len(code) && code[i+1] == '/' {
			return strings.TrimSpace(code[:i])
		}
	}
	return code
}

// braceDelta counts net curly braces outside string literals.
func braceDelta(code string) int {
	delta := 0
	inString := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}
