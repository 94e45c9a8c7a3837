package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultLabel is the profile created by `config init` and used as the
// fallback when the active profile is removed.
const DefaultLabel = "Default"

var (
	ErrNoConfig = errors.New("no config selected")
	ErrBadLabel = errors.New("label must be a plain name without path separators")
)

// Root is $APPDATA/mangapdf on Windows, otherwise $XDG_CONFIG_HOME/mangapdf
// or ~/.config/mangapdf.
func Root() string {
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "mangapdf")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mangapdf")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mangapdf")
}

// Store keeps labelled profiles as <root>/configs/<label>.yaml and the
// active label in <root>/current_config.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func DefaultStore() *Store {
	return NewStore(Root())
}

type Profile struct {
	Label  string
	Path   string
	Active bool
}

func (s *Store) Dir() string {
	return filepath.Join(s.root, "configs")
}

func (s *Store) Path(label string) string {
	return filepath.Join(s.Dir(), label+".yaml")
}

func (s *Store) currentFile() string {
	return filepath.Join(s.root, "current_config")
}

func cleanLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" || label == "." || label == ".." || strings.ContainsAny(label, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrBadLabel, label)
	}

	return label, nil
}

func (s *Store) exists(label string) bool {
	_, err := os.Stat(s.Path(label))
	return err == nil
}

// Current returns the active label, or ErrNoConfig when none is set.
func (s *Store) Current() (string, error) {
	b, err := os.ReadFile(s.currentFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(string(b))
	if label == "" {
		return "", ErrNoConfig
	}

	return label, nil
}

// Active returns the path of the active profile.
func (s *Store) Active() (string, error) {
	label, err := s.Current()
	if err != nil {
		return "", err
	}

	return s.Path(label), nil
}

func (s *Store) setCurrent(label string) error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return err
	}

	return os.WriteFile(s.currentFile(), []byte(label), 0644)
}

// Lookup returns the path of an existing profile.
func (s *Store) Lookup(label string) (string, error) {
	label, err := cleanLabel(label)
	if err != nil {
		return "", err
	}
	if !s.exists(label) {
		return "", fmt.Errorf("config %q does not exist", label)
	}

	return s.Path(label), nil
}

func (s *Store) List() ([]Profile, error) {
	entries, err := os.ReadDir(s.Dir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	active, _ := s.Current()
	var out []Profile

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".yaml" {
			continue
		}

		label := strings.TrimSuffix(name, ".yaml")
		out = append(out, Profile{Label: label, Path: s.Path(label), Active: label == active})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// Create writes cfg as a new profile. Existing profiles are never replaced.
func (s *Store) Create(label string, cfg *Config) (string, error) {
	label, err := cleanLabel(label)
	if err != nil {
		return "", err
	}
	if s.exists(label) {
		return "", fmt.Errorf("config %q already exists: %w", label, os.ErrExist)
	}
	if err := os.MkdirAll(s.Dir(), 0755); err != nil {
		return "", err
	}

	path := s.Path(label)
	if err := SaveYAML(cfg, path); err != nil {
		return "", err
	}

	return path, nil
}

// Init creates the Default profile if needed and makes it active. When it
// already exists the returned error wraps os.ErrExist.
func (s *Store) Init() (string, error) {
	_, err := s.Create(DefaultLabel, DefaultConfig())
	if err != nil && !errors.Is(err, os.ErrExist) {
		return "", err
	}

	if serr := s.setCurrent(DefaultLabel); serr != nil {
		return "", serr
	}

	return s.Path(DefaultLabel), err
}

// Load reads a profile over the defaults and reports what Check finds in it.
// The returned config is not normalised.
func (s *Store) Load(label string) (*Config, []Problem, error) {
	path, err := s.Lookup(label)
	if err != nil {
		return nil, nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	problems, err := Check(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("config %q: %w", label, err)
	}

	cfg, err := loadYAML(path)
	if err != nil {
		return nil, nil, err
	}

	return cfg, problems, nil
}

// Switch activates label. A profile that does not parse is refused; other
// problems are returned so the caller can warn about them.
func (s *Store) Switch(label string) ([]Problem, error) {
	label, err := cleanLabel(label)
	if err != nil {
		return nil, err
	}

	_, problems, err := s.Load(label)
	if err != nil {
		return nil, err
	}

	return problems, s.setCurrent(label)
}

func (s *Store) Rename(oldLabel, newLabel string) error {
	oldPath, err := s.Lookup(oldLabel)
	if err != nil {
		return err
	}
	newLabel, err = cleanLabel(newLabel)
	if err != nil {
		return err
	}
	if s.exists(newLabel) {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, s.Path(newLabel)); err != nil {
		return err
	}

	if active, _ := s.Current(); active == strings.TrimSpace(oldLabel) {
		return s.setCurrent(newLabel)
	}

	return nil
}

// Remove deletes a profile. Removing the active one activates Default; the
// new active label is returned, empty when it did not change.
func (s *Store) Remove(label string) (string, error) {
	path, err := s.Lookup(label)
	if err != nil {
		return "", err
	}
	label = strings.TrimSpace(label)
	if label == DefaultLabel {
		return "", errors.New("cannot remove the Default config")
	}

	fallback := ""
	if active, _ := s.Current(); active == label {
		if !s.exists(DefaultLabel) {
			return "", fmt.Errorf("config %q is active and there is no %s config to fall back to", label, DefaultLabel)
		}
		if err := s.setCurrent(DefaultLabel); err != nil {
			return "", err
		}
		fallback = DefaultLabel
	}

	return fallback, os.Remove(path)
}

// Reset overwrites a profile with the default values.
func (s *Store) Reset(label string) (string, error) {
	path, err := s.Lookup(label)
	if err != nil {
		return "", err
	}

	return path, SaveYAML(DefaultConfig(), path)
}
