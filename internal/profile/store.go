// Package profile stores mapping profiles as JSON files, one per
// profile, under the user config directory. The playback core only reads
// through the ProfileStore contract; Save exists for tooling.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// DefaultProfileName is always resolvable: when no file overrides it,
// the built-in QWERTY layout is returned.
const DefaultProfileName = "default"

// Store is a file-backed ProfileStore. Each profile lives in
// <dir>/<name>.json.
type Store struct {
	dir string
}

// DefaultDir returns the per-user profile directory,
// ~/.config/midikeys/profiles.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "midikeys", "profiles"), nil
}

// NewStore creates a store over the given directory. The directory is
// created lazily on the first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Profile loads one profile by name and validates it. Asking for the
// default name with no file behind it returns the built-in profile.
func (s *Store) Profile(name string) (*contracts.Profile, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) && name == DefaultProfileName {
			return DefaultProfile(), nil
		}
		return nil, fmt.Errorf("load profile %q: %w", name, err)
	}

	var p contracts.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", name, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}
	return &p, nil
}

// Names lists the stored profile names. A store that has never saved
// anything lists nothing.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Save validates and writes a profile, creating the directory on first
// use.
func (s *Store) Save(p *contracts.Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(p.Name), data, 0644)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// DefaultProfile is the built-in layout: one octave of white keys on the
// home row and black keys on the row above, the classic virtual piano
// arrangement, centered on middle C.
func DefaultProfile() *contracts.Profile {
	keys := []struct {
		note uint8
		key  string
	}{
		{60, "a"}, {61, "w"}, {62, "s"}, {63, "e"}, {64, "d"},
		{65, "f"}, {66, "t"}, {67, "g"}, {68, "y"}, {69, "h"},
		{70, "u"}, {71, "j"}, {72, "k"},
	}

	mappings := make([]contracts.NoteMapping, 0, len(keys))
	for _, k := range keys {
		mappings = append(mappings, contracts.NoteMapping{
			Note:        k.note,
			Combo:       contracts.KeyCombination{Key: k.key},
			Channel:     contracts.AnyChannel,
			MinVelocity: 0,
			MaxVelocity: 127,
		})
	}

	return &contracts.Profile{
		Name:     DefaultProfileName,
		Mappings: mappings,
		Options:  contracts.DefaultPlaybackOptions(),
	}
}
