// Package syntax scans .ak source modules for their declaration surface:
// imports, constants, types, functions, validators and tests, together
// with doc comments. It does not parse expressions or check types; that
// work belongs to the codegen backend.
package syntax

import "fmt"

// Problem is a positional finding produced while scanning a module.
type Problem struct {
	Line    int
	Message string
}

func (p Problem) String() string { return fmt.Sprintf("line %d: %s", p.Line, p.Message) }

// Import is one `use` declaration.
type Import struct {
	Line        int
	Module      string   // e.g. "aiken/list"
	Alias       string   // `use aiken/list as l`
	Unqualified []string // `use aiken/list.{map, filter}`
}

// Param is one parameter of a function, validator or handler. Label is
// set when the parameter is declared with a labeled argument
// (`label name: Type`).
type Param struct {
	Label string
	Name  string
	Type  string
}

// Function is a top-level fn declaration.
type Function struct {
	Line   int
	Name   string
	Public bool
	Docs   []string
	Params []Param
	Return string
}

// Handler is one named condition inside a validator block. Spend
// handlers take three arguments (datum, redeemer, context); mint,
// withdraw and publish take two.
type Handler struct {
	Line   int
	Name   string
	Params []Param
}

// Validator is a validator block, optionally parameterized.
type Validator struct {
	Line     int
	Name     string
	Docs     []string
	Params   []Param // validator-level parameters, applied before use
	Handlers []Handler
}

// Test is a top-level test declaration.
type Test struct {
	Line int
	Name string
	Docs []string
}

// Constant is a top-level const declaration.
type Constant struct {
	Line   int
	Name   string
	Type   string
	Public bool
	Docs   []string
}

// TypeDef is a top-level type declaration (constructors are not
// recorded).
type TypeDef struct {
	Line   int
	Name   string
	Public bool
	Opaque bool
	Docs   []string
}

// Module is the scanned declaration surface of one source file.
type Module struct {
	Name       string
	File       string
	Docs       []string
	Imports    []Import
	Constants  []Constant
	Types      []TypeDef
	Functions  []Function
	Validators []Validator
	Tests      []Test
}
