package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	executor "github.com/hanpama/hotgraph/internal/executor"
	fielderr "github.com/hanpama/hotgraph/internal/fielderr"
)

// Manifest is the YAML form of a static provider.
//
//	fieldType: weather
//	sdl: |
//	  type Weather { city: String!, celsius: Float }
//	  extend type Query { weather: [Weather!]! }
//	errorCodes: [WEATHER_UNAVAILABLE]
//	values:
//	  Query.weather:
//	    - {city: Seoul, celsius: 21.5}
//	failures:
//	  Query.forecast:
//	    - {path: [forecast, 0], message: no data, code: WEATHER_UNAVAILABLE}
type Manifest struct {
	FieldType  string                       `yaml:"fieldType"`
	SDL        string                       `yaml:"sdl"`
	ErrorCodes []string                     `yaml:"errorCodes"`
	Values     map[string]any               `yaml:"values"`
	Failures   map[string][]ManifestFailure `yaml:"failures"`
}

// ManifestFailure is a structured message a field always fails with.
type ManifestFailure struct {
	Path    []any  `yaml:"path"`
	Message string `yaml:"message"`
	Code    string `yaml:"code"`
}

// Static serves fixed values and failures declared in a Manifest.
type Static struct {
	manifest  Manifest
	source    string
	resolvers map[string]executor.FieldFunc
}

// NewStatic validates m and builds its resolvers.
func NewStatic(m Manifest, source string) (*Static, error) {
	if strings.TrimSpace(m.FieldType) == "" {
		return nil, fmt.Errorf("%s: fieldType is required", source)
	}
	if strings.TrimSpace(m.SDL) == "" {
		return nil, fmt.Errorf("%s: sdl is required", source)
	}
	resolvers := make(map[string]executor.FieldFunc, len(m.Values)+len(m.Failures))
	for key, v := range m.Values {
		if err := checkKey(key); err != nil {
			return nil, fmt.Errorf("%s: values: %w", source, err)
		}
		resolvers[key] = Value(v)
	}
	for key, failures := range m.Failures {
		if err := checkKey(key); err != nil {
			return nil, fmt.Errorf("%s: failures: %w", source, err)
		}
		if _, dup := resolvers[key]; dup {
			return nil, fmt.Errorf("%s: %s has both a value and failures", source, key)
		}
		msgs := make([]fielderr.Message, len(failures))
		for i, f := range failures {
			msgs[i] = fielderr.Message{Path: f.Path, Text: f.Message, Code: f.Code}
		}
		resolvers[key] = func(ctx context.Context, _ any, _ map[string]any) (any, error) {
			return nil, fielderr.New(msgs...)
		}
	}
	return &Static{manifest: m, source: source, resolvers: resolvers}, nil
}

func checkKey(key string) error {
	typ, field, ok := strings.Cut(key, ".")
	if !ok || typ == "" || field == "" {
		return fmt.Errorf("invalid resolver key %q, want Type.field", key)
	}
	return nil
}

func (s *Static) FieldType() string                        { return s.manifest.FieldType }
func (s *Static) SDL() string                              { return s.manifest.SDL }
func (s *Static) Resolvers() map[string]executor.FieldFunc { return s.resolvers }
func (s *Static) ErrorCodes() []string                     { return s.manifest.ErrorCodes }

// Source is the file the provider was loaded from.
func (s *Static) Source() string { return s.source }

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte, source string) (*Static, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	return NewStatic(m, source)
}

// LoadFile reads a manifest file.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data, path)
}

// IsManifest reports whether path names a manifest file.
func IsManifest(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return !strings.HasPrefix(filepath.Base(path), ".")
	}
	return false
}

// LoadDir loads every manifest in dir, ordered by file name.
func LoadDir(dir string) ([]*Static, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read provider dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && IsManifest(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	out := make([]*Static, 0, len(names))
	for _, name := range names {
		p, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
