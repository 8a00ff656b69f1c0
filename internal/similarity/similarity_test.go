package similarity

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRatioIdentity(t *testing.T) {
	for _, s := range []string{"", "a", "dog", "Elephant", "crème brûlée", "two words"} {
		if got := Ratio(s, s); got != 1 {
			t.Errorf("Ratio(%q, %q) = %v, want 1", s, s, got)
		}
	}
}

func TestRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"dog", "dob"},
		{"elephant", "elefant"},
		{"", "cat"},
		{"kitten", "sitting"},
		{"flaw", "lawn"},
		{"Basketball", "baseball"},
	}
	for _, p := range pairs {
		ab, ba := Ratio(p[0], p[1]), Ratio(p[1], p[0])
		if !almostEqual(ab, ba) {
			t.Errorf("Ratio not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestRatioEdgeCases(t *testing.T) {
	if got := Ratio("", ""); got != 1 {
		t.Errorf(`Ratio("", "") = %v, want 1`, got)
	}
	if got := Ratio("", "cat"); got != 0 {
		t.Errorf(`Ratio("", "cat") = %v, want 0`, got)
	}
	if got := Ratio("DOG", "dog"); got != 1 {
		t.Errorf("Ratio should ignore case, got %v", got)
	}
}

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"dog", "dob", 1},
		{"elephant", "elefant", 2},
		{"elephant", "elephent", 1},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"Über", "über", 0},
	}
	for _, c := range cases {
		if got := Distance(c.a, c.b); got != c.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestIsMatchScenarios(t *testing.T) {
	cases := []struct {
		guess, word string
		ratio       float64
		match       bool
	}{
		{"dog", "dog", 1, true},
		{"dob", "dog", 1 - 1.0/3, false},
		{"elephent", "elephant", 0.875, true},
		// ph -> f is a substitution plus a deletion.
		{"elefant", "elephant", 0.75, false},
		{"cat", "dog", 0, false},
		// 1 edit over 5 runes is exactly 0.8, which is not enough.
		{"hous", "house", 0.8, false},
	}
	for _, c := range cases {
		r := Ratio(c.guess, c.word)
		if !almostEqual(r, c.ratio) {
			t.Errorf("Ratio(%q, %q) = %v, want %v", c.guess, c.word, r, c.ratio)
		}
		if got := IsMatch(c.guess, c.word); got != c.match {
			t.Errorf("IsMatch(%q, %q) = %v, want %v", c.guess, c.word, got, c.match)
		}
	}
}

func TestRatioBounds(t *testing.T) {
	words := []string{"", "a", "ab", "apple", "applesauce", "zebra", "pineapple"}
	for _, a := range words {
		for _, b := range words {
			r := Ratio(a, b)
			if r < 0 || r > 1 {
				t.Errorf("Ratio(%q, %q) = %v out of [0,1]", a, b, r)
			}
		}
	}
}
