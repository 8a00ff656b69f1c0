package topics

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestInitLoadsEmbeddedDefaults(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Stats() == 0 {
		t.Fatal("no topics loaded")
	}
	if !Contains("Animals ") {
		t.Fatal("expected embedded catalog to contain animals")
	}
	if !slices.Contains(List(), Random()) {
		t.Fatal("Random returned a topic outside the catalog")
	}
}

func TestNormalize(t *testing.T) {
	got := normalize([]string{"  Sports", "# comment", "", "sports", "Board Games", "\tfood\t"})
	want := []string{"sports", "board games", "food"}
	if !slices.Equal(got, want) {
		t.Fatalf("normalize = %v, want %v", got, want)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.txt")
	if err := os.WriteFile(path, []byte("# mine\nSpace\nspace\nJazz\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(got, []string{"space", "jazz"}) {
		t.Fatalf("load = %v", got)
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("# nothing\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := load(empty); err == nil {
		t.Fatal("empty catalog should fail")
	}
	if _, err := load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestSearch(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, hit := range Search("OCEAN") {
		if hit != "ocean life" {
			t.Fatalf("unexpected match %q", hit)
		}
	}
	if len(Search("")) != Stats() {
		t.Fatal("empty query should return everything")
	}
	if len(Search("zzzz-no-such-topic")) != 0 {
		t.Fatal("expected no matches")
	}
}
