package control

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigPath is where the component list is read from.
const DefaultConfigPath = "/opt/HUDView/Control/default.toml"

// Component is one configured component.
type Component struct {
	ID      ID     `json:"-"`
	Name    string `json:"name"`
	Program string `json:"program"`
	Enabled bool   `json:"enabled"`
}

// Executable returns the first word of the program line.
func (c Component) Executable() string {
	fields := strings.Fields(c.Program)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Config is the parsed component list, ordered by ID.
type Config struct {
	Components []Component
}

// Get returns the component named name.
func (c *Config) Get(name string) (Component, bool) {
	for _, comp := range c.Components {
		if comp.Name == name {
			return comp, true
		}
	}
	return Component{}, false
}

type fileConfig struct {
	Components map[string]struct {
		Program string `toml:"program"`
		Enabled *bool  `toml:"enabled"`
	} `toml:"components"`
}

var legacyLine = regexp.MustCompile(`^(\S+?):(\S+)$`)

// ParseConfig parses the TOML component table or the legacy
// "Name:/path/to/program" line format.
func ParseConfig(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty config")
	}
	if isLegacy(data) {
		return parseLegacy(data)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(fc.Components) == 0 {
		return nil, errors.New("no components configured")
	}

	cfg := &Config{}
	for name, entry := range fc.Components {
		id, err := ParseID(name)
		if err != nil {
			return nil, err
		}
		enabled := true
		if entry.Enabled != nil {
			enabled = *entry.Enabled
		}
		cfg.Components = append(cfg.Components, Component{
			ID:      id,
			Name:    name,
			Program: strings.TrimSpace(entry.Program),
			Enabled: enabled,
		})
	}
	cfg.sort()
	return cfg, nil
}

// isLegacy reports whether every non-blank line looks like Name:program.
func isLegacy(data []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	seen := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !legacyLine.MatchString(line) {
			return false
		}
		seen = true
	}
	return seen
}

func parseLegacy(data []byte) (*Config, error) {
	cfg := &Config{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := legacyLine.FindStringSubmatch(line)
		id, err := ParseID(m[1])
		if err != nil {
			return nil, err
		}
		if _, dup := cfg.Get(m[1]); dup {
			return nil, fmt.Errorf("component %s listed twice", m[1])
		}
		cfg.Components = append(cfg.Components, Component{ID: id, Name: m[1], Program: m[2], Enabled: true})
	}
	cfg.sort()
	return cfg, nil
}

func (c *Config) sort() {
	slices.SortFunc(c.Components, func(a, b Component) int { return int(a.ID) - int(b.ID) })
}

// Validate checks that every enabled component has a program that exists.
func (c *Config) Validate() error {
	if len(c.Components) == 0 {
		return errors.New("no components configured")
	}
	for _, comp := range c.Components {
		if !comp.Enabled {
			continue
		}
		exe := comp.Executable()
		if exe == "" {
			return fmt.Errorf("component %s: missing program", comp.Name)
		}
		if _, err := os.Stat(exe); err != nil {
			return fmt.Errorf("component %s: program %s: %w", comp.Name, exe, err)
		}
	}
	return nil
}

// LoadConfig reads, parses and validates the component file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read component config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
