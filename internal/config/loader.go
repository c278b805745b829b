package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source records where a config value came from.
type Source struct {
	Kind   SourceKind
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // dotted key -> position in the file
	File    string            // empty when no file was read
}

// DefaultConfigPath is $XDG_CONFIG_HOME/dropterm/config.yaml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); filepath.IsAbs(dir) {
		return filepath.Join(dir, "dropterm", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "dropterm", "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load plus key positions for config explain.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads, normalizes and validates the config at path. A missing
// file yields the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	res := &LoadResult{Sources: map[string]Source{}}

	raw, err := res.read(path)
	if err != nil {
		return nil, err
	}

	res.Config = BuildEffectiveConfig(raw)
	if err := res.Config.Validate(); err != nil {
		return nil, res.locate(err)
	}
	return res, nil
}

// read decodes the file at path into a RawConfig and records the position of
// every key it sets.
func (r *LoadResult) read(path string) (RawConfig, error) {
	var raw RawConfig

	file, err := resolveFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return raw, nil
	}
	if err != nil {
		return raw, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return raw, fmt.Errorf("%s: failed to read: %w", file, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return raw, fmt.Errorf("%s: %w", file, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return raw, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	r.walk(root, file, "")
	r.File = file
	return raw, nil
}

// walk indexes mapping keys by dotted path and sequence items by index, so
// the second hotkey is "hotkeys.1".
func (r *LoadResult) walk(node *yaml.Node, file, prefix string) {
	mark := func(key string, n *yaml.Node) {
		r.Sources[key] = Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
		r.walk(n, file, key)
	}

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			mark(key, node.Content[i+1])
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			mark(prefix+"."+strconv.Itoa(i), item)
		}
	}
}

// locate fills in the file position of a ValidationError when the offending
// key was set in the file.
func (r *LoadResult) locate(err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := r.Sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}

// resolveFile returns the absolute, symlink-free form of path, or an error
// wrapping fs.ErrNotExist when there is nothing to read.
func resolveFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}
