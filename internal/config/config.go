// Package config loads the optional .larchfix.kdl configuration file and
// merges it under CLI flag overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// DefaultPath is where the tool looks for configuration when no --config
// flag is given.
const DefaultPath = ".larchfix.kdl"

// Config holds the run settings that can come from file or flags.
type Config struct {
	Workdir       string
	Jobs          int
	KeepGoing     bool
	Verbose       bool
	Replace       bool
	CleanWorkdir  bool
	ExcludeLabels []string
}

// Default returns the built-in settings: workdir derived from the output
// store, one conversion per CPU, strict mode.
func Default() *Config {
	return &Config{}
}

// Load reads path when it exists; a missing file yields the defaults. An
// unreadable or unparsable file is an error so that a typo never silently
// reverts a run to defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := Default()
	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "workdir":
			if s, ok := firstStringArg(n); ok {
				cfg.Workdir = s
			}
		case "jobs":
			if v, ok := firstIntArg(n); ok {
				cfg.Jobs = v
			}
		case "keep-going":
			if b, ok := firstBoolArg(n); ok {
				cfg.KeepGoing = b
			}
		case "verbose":
			if b, ok := firstBoolArg(n); ok {
				cfg.Verbose = b
			}
		case "replace":
			if b, ok := firstBoolArg(n); ok {
				cfg.Replace = b
			}
		case "clean":
			if b, ok := firstBoolArg(n); ok {
				cfg.CleanWorkdir = b
			}
		case "exclude-labels":
			cfg.ExcludeLabels = append(cfg.ExcludeLabels, collectStringArgs(n)...)
		case "":
			// tolerated: comments-only or malformed nodes
		default:
			return nil, fmt.Errorf("unknown config node %q in %s", nodeName(n), path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings no run could use.
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	return nil
}

// Helper functions leveraging the kdl-go document model.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
