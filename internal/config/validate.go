package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Severity classifies a manifest problem.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem is one validation finding against the manifest.
type Problem struct {
	Field    string
	Severity Severity
	Message  string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Severity, p.Field, p.Message)
}

// spdxCommon is the set of licence identifiers accepted without a
// warning. It is intentionally the short list seen in on-chain projects,
// not the full SPDX registry.
var spdxCommon = map[string]bool{
	"Apache-2.0":        true,
	"MIT":               true,
	"BSD-2-Clause":      true,
	"BSD-3-Clause":      true,
	"MPL-2.0":           true,
	"GPL-2.0-or-later":  true,
	"GPL-3.0-or-later":  true,
	"LGPL-3.0-or-later": true,
	"AGPL-3.0-or-later": true,
	"ISC":               true,
	"Unlicense":         true,
	"CC0-1.0":           true,
	"0BSD":              true,
	"BSL-1.0":           true,
	"Zlib":              true,
}

var validNetworks = map[string]bool{
	"mainnet": true,
	"preprod": true,
	"preview": true,
}

var validPlutusVersions = map[string]bool{
	"v1": true,
	"v2": true,
	"v3": true,
}

// Validate checks the manifest against the schema rules and returns all
// findings. An empty slice means the manifest is clean.
func (c *Config) Validate() []Problem {
	var problems []Problem
	add := func(field string, sev Severity, format string, args ...any) {
		problems = append(problems, Problem{Field: field, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if c.Name == "" {
		add("name", SeverityError, "is required")
	} else if _, err := ParseName(c.Name); err != nil {
		add("name", SeverityError, "%v", err)
	}

	if c.Version == "" {
		add("version", SeverityError, "is required")
	} else if _, err := semver.NewVersion(c.Version); err != nil {
		add("version", SeverityWarning, "%q is not a semantic version; semantic versioning is recommended", c.Version)
	}

	if c.Compiler != "" {
		if _, err := semver.NewConstraint(c.Compiler); err != nil {
			add("compiler", SeverityError, "%q is not a valid version constraint", c.Compiler)
		}
	}

	if c.PlutusVersion != "" && !validPlutusVersions[c.PlutusVersion] {
		add("plutus", SeverityError, "%q is not one of v1, v2, v3", c.PlutusVersion)
	}

	for _, l := range c.Licences {
		if !spdxCommon[l] {
			add("licences", SeverityWarning, "%q is not a recognised SPDX identifier", l)
		}
	}

	if r := c.Repository; r != nil {
		if !validSource(r.Platform) {
			add("repository.platform", SeverityError, "%q is not one of github, gitlab, bitbucket", r.Platform)
		}
		if r.User == "" {
			add("repository.user", SeverityError, "is required when [repository] is present")
		}
		if r.Project == "" {
			add("repository.project", SeverityError, "is required when [repository] is present")
		}
	}

	if n := c.Network; n != nil && !validNetworks[n.ID] {
		add("network.id", SeverityError, "%q is not one of mainnet, preprod, preview", n.ID)
	}

	seen := make(map[string]bool)
	for i, d := range c.Dependencies {
		field := fmt.Sprintf("dependencies[%d]", i)
		if _, err := ParseName(d.Name); err != nil {
			add(field+".name", SeverityError, "%v", err)
		}
		if d.Version == "" {
			add(field+".version", SeverityError, "is required")
		}
		if !validSource(d.Source) {
			add(field+".source", SeverityError, "%q is not one of github, gitlab, bitbucket", d.Source)
		}
		if seen[d.Name] {
			add(field+".name", SeverityError, "duplicate dependency %q", d.Name)
		}
		seen[d.Name] = true
	}

	return problems
}

// HasErrors reports whether any problem is of error severity.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validSource(p Platform) bool {
	switch p {
	case GitHub, GitLab, Bitbucket:
		return true
	}
	return false
}
