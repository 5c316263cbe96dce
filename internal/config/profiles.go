package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/effilabel/internal/rating"
)

// DefaultProfileName resolves to the built-in profile when no file overrides it
const DefaultProfileName = "default"

var (
	ErrProfileNotFound    = errors.New("rating profile not found")
	ErrInvalidProfileName = errors.New("invalid rating profile name")
)

// ProfileStore manages rating profiles stored as YAML or JSON files
type ProfileStore struct {
	dataDir string
}

// NewProfileStore creates a store rooted at dataDir
func NewProfileStore(dataDir string) *ProfileStore {
	return &ProfileStore{dataDir: dataDir}
}

// LoadProfile loads the named profile, trying <name>.yaml, <name>.yml and
// <name>.json in that order. The default profile is built in unless a file
// overrides it
func (s *ProfileStore) LoadProfile(name string) (*rating.Profile, error) {
	if name == "" {
		name = DefaultProfileName
	}
	if err := validateProfileName(name); err != nil {
		return nil, err
	}

	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(s.dataDir, name+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read profile %s: %w", name, err)
		}

		p, err := decodeProfile(data, ext)
		if err != nil {
			return nil, fmt.Errorf("failed to decode profile %s: %w", name, err)
		}
		if p.Name == "" {
			p.Name = name
		}
		if len(p.Grades) == 0 {
			p.Grades = rating.DefaultGrades
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
		return p, nil
	}

	if name == DefaultProfileName {
		p := rating.DefaultProfile()
		return &p, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrProfileNotFound)
}

// SaveProfile writes p as YAML under its name
func (s *ProfileStore) SaveProfile(p *rating.Profile) error {
	if err := validateProfileName(p.Name); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dataDir, p.Name+".yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// ListProfiles returns the names of stored profiles plus the built-in default
func (s *ProfileStore) ListProfiles() ([]string, error) {
	seen := map[string]bool{DefaultProfileName: true}

	entries, err := os.ReadDir(s.dataDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		switch ext {
		case ".yaml", ".yml", ".json":
			seen[strings.TrimSuffix(e.Name(), ext)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func decodeProfile(data []byte, ext string) (*rating.Profile, error) {
	var p rating.Profile
	if ext == ".json" {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func validateProfileName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%q: %w", name, ErrInvalidProfileName)
	}
	return nil
}
