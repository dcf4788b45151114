// ABOUTME: Tests for the persisted prompt store
// ABOUTME: Tests default merging, overrides, and round-trips
package prompts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "prompts.json"))

	got := store.Load()
	defaults := Defaults()

	if len(got) != len(defaults) {
		t.Fatalf("expected %d defaults, got %d", len(defaults), len(got))
	}
	if got[0].Text != defaults[0].Text {
		t.Errorf("expected first default %q, got %q", defaults[0].Text, got[0].Text)
	}
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := NewStore(path).Load()
	if len(got) != len(Defaults()) {
		t.Errorf("expected defaults from corrupt file, got %d prompts", len(got))
	}
}

func TestRoundTripOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	store := NewStore(path)

	edited := Defaults()
	edited[2].Weight = 1.5
	edited[2].CC = 42
	edited[2].Text = "Liquid Drum and Bass"

	if err := store.Save(edited); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got := store.Load()
	if got[2].Weight != 1.5 {
		t.Errorf("expected stored weight 1.5, got %v", got[2].Weight)
	}
	if got[2].CC != 42 {
		t.Errorf("expected stored cc 42, got %d", got[2].CC)
	}
	if got[2].Text != "Liquid Drum and Bass" {
		t.Errorf("expected stored text override, got %q", got[2].Text)
	}
}

func TestLoadRederivesColor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	store := NewStore(path)

	edited := Defaults()
	edited[0].Color = "#000000" // stale color on disk must not survive

	if err := store.Save(edited); err != nil {
		t.Fatal(err)
	}

	got := store.Load()
	want := ColorFor(got[0].Category)
	if got[0].Color != want {
		t.Errorf("expected theme color %s, got %s", want, got[0].Color)
	}
}

func TestLoadKeepsUserPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	store := NewStore(path)

	list := Defaults()
	list = append(list, Prompt{
		ID:       "user-1",
		Text:     "Detuned Tape Pads",
		Weight:   0.8,
		CC:       30,
		Category: "mood",
		Source:   SourceUser,
	})

	if err := store.Save(list); err != nil {
		t.Fatal(err)
	}

	got := store.Load()
	if len(got) != len(Defaults())+1 {
		t.Fatalf("expected %d prompts, got %d", len(Defaults())+1, len(got))
	}

	last := got[len(got)-1]
	if last.Text != "Detuned Tape Pads" || last.Source != SourceUser {
		t.Errorf("expected user prompt preserved, got %+v", last)
	}
}

func TestToWeightedFiltersZeroWeights(t *testing.T) {
	list := []Prompt{
		{Text: "Funk", Weight: 1.2},
		{Text: "Shoegaze", Weight: 0},
		{Text: "Chiptune", Weight: 0.4},
	}

	got := ToWeighted(list)
	if len(got) != 2 {
		t.Fatalf("expected 2 weighted prompts, got %d", len(got))
	}
	if got[0].Text != "Funk" || got[1].Text != "Chiptune" {
		t.Errorf("unexpected weighted set: %+v", got)
	}
}
