// ABOUTME: Persisted prompt store
// ABOUTME: Loads and saves the prompt set under a single key, merging defaults
package prompts

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// storeFile holds everything persisted, under a single top-level key.
type storeFile struct {
	Prompts []Prompt `json:"prompts"`
}

// Store persists the prompt set to a JSON file.
type Store struct {
	path string
}

// NewStore creates a store at the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the per-user prompt store location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no user config dir: %w", err)
	}
	return filepath.Join(dir, "promptdj", "prompts.json"), nil
}

// Load returns the persisted prompt set merged with the built-in defaults.
// Stored records override text, weight, cc, and category of a matching
// default; user-added prompts are appended. Color is always re-derived from
// the current theme, never read back from disk. A missing or unreadable
// file yields the defaults.
func (s *Store) Load() []Prompt {
	merged := Defaults()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read prompt store %s: %v", s.path, err)
		}
		return merged
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Printf("Ignoring corrupt prompt store %s: %v", s.path, err)
		return merged
	}

	byID := make(map[string]int, len(merged))
	for i, p := range merged {
		byID[p.ID] = i
	}

	for _, stored := range file.Prompts {
		if i, ok := byID[stored.ID]; ok {
			merged[i].Text = stored.Text
			merged[i].Weight = stored.Weight
			merged[i].CC = stored.CC
			merged[i].Category = stored.Category
			merged[i].Color = ColorFor(stored.Category)
			continue
		}
		stored.Source = SourceUser
		stored.Color = ColorFor(stored.Category)
		merged = append(merged, stored)
	}

	return merged
}

// Save writes the prompt set to disk.
func (s *Store) Save(list []Prompt) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store dir: %w", err)
	}

	data, err := json.MarshalIndent(storeFile{Prompts: list}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode prompts: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write prompt store: %w", err)
	}

	return nil
}
