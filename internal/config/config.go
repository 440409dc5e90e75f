// Package config loads, validates and writes the aiken.toml project
// manifest.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Filename is the manifest name looked up at the project root.
const Filename = "aiken.toml"

// Platform identifies a source forge for repositories and dependencies.
type Platform string

const (
	GitHub    Platform = "github"
	GitLab    Platform = "gitlab"
	Bitbucket Platform = "bitbucket"
)

// Config is the parsed aiken.toml manifest.
type Config struct {
	Name          string       `toml:"name"`
	Version       string       `toml:"version"`
	Compiler      string       `toml:"compiler,omitempty"`
	PlutusVersion string       `toml:"plutus,omitempty"`
	Licences      []string     `toml:"licences,omitempty"`
	Description   string       `toml:"description,omitempty"`
	Repository    *Repository  `toml:"repository,omitempty"`
	Network       *Network     `toml:"network,omitempty"`
	Dependencies  []Dependency `toml:"dependencies,omitempty"`
}

// Repository points at the project's own forge location.
type Repository struct {
	Platform Platform `toml:"platform"`
	User     string   `toml:"user"`
	Project  string   `toml:"project"`
}

// Network selects the chain used for address generation.
type Network struct {
	ID string `toml:"id"` // mainnet, preprod or preview
}

// Dependency is one [[dependencies]] entry. Version may be a tag, a
// branch name or a commit hash; it is passed through to the forge's
// archive endpoint as-is.
type Dependency struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Source  Platform `toml:"source"`
}

// PackageName is a parsed org/project pair.
type PackageName struct {
	Owner string
	Repo  string
}

func (n PackageName) String() string { return n.Owner + "/" + n.Repo }

// DirName is the on-disk directory a package unpacks into.
func (n PackageName) DirName() string { return n.Owner + "-" + n.Repo }

// ParseName splits an org/project string, rejecting anything that is not
// exactly two non-empty lowercase segments.
func ParseName(s string) (PackageName, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return PackageName{}, fmt.Errorf("config: package name %q must be formatted as {owner}/{project}", s)
	}
	for _, part := range parts {
		for _, r := range part {
			if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
				continue
			}
			return PackageName{}, fmt.Errorf("config: package name %q may only contain lowercase letters, digits, '-' and '_'", s)
		}
	}
	return PackageName{Owner: parts[0], Repo: parts[1]}, nil
}

// Load parses a manifest from bytes. Unknown keys are rejected so typos
// in aiken.toml surface instead of being silently dropped.
func Load(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", Filename, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown key(s) in %s: %s", Filename, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// LoadFromPath reads and parses the manifest at path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Load(data)
}

// Encode renders the manifest back to TOML with stable field order.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("config: encode %s: %w", Filename, err)
	}
	return buf.Bytes(), nil
}

// Save writes the manifest to path.
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Plutus returns the target Plutus version, defaulting to v2.
func (c *Config) Plutus() string {
	if c.PlutusVersion == "" {
		return "v2"
	}
	return c.PlutusVersion
}

// NetworkID returns the configured network, defaulting to preview.
func (c *Config) NetworkID() string {
	if c.Network == nil || c.Network.ID == "" {
		return "preview"
	}
	return c.Network.ID
}

// FindDependency returns the dependency entry with the given name, if any.
func (c *Config) FindDependency(name string) *Dependency {
	for i := range c.Dependencies {
		if c.Dependencies[i].Name == name {
			return &c.Dependencies[i]
		}
	}
	return nil
}
