// internal/topics/topics.go
//
// Topic catalog for round setup.
//
// Responsibilities:
//   - Load topic suggestions from a configured file or fall back to embedded defaults.
//   - Supply List, Random, Contains, Search and Stats.
//
// Topics are suggestions only; players may type any non-blank topic.
//
// Initialization behavior (Init):
//   1. If a path is given (TOPICS_FILE), load one topic per line from it.
//   2. Otherwise use assets/topics.txt.
//
// Constraints:
//   • Topics are trimmed, lowercased and de-duplicated; '#' lines are comments.
//   • Initialization is run once (sync.Once).

package topics

import (
	"bufio"
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/mdonmez/taibu/assets"
)

var (
	initOnce   sync.Once
	topics     []string
	initialErr error
)

// Init loads the catalog from path (embedded defaults when empty) exactly once.
// Returns an error if the catalog ends up empty.
func Init(path string) error {
	initOnce.Do(func() {
		topics, initialErr = load(path)
	})
	return initialErr
}

func load(path string) ([]string, error) {
	var list []string
	var err error
	if path != "" {
		list, err = readTopicFile(path)
	} else {
		list, err = assets.TopicList()
	}
	if err != nil {
		return nil, err
	}
	list = normalize(list)
	if len(list) == 0 {
		return nil, errors.New("topics: catalog is empty")
	}
	return list, nil
}

// readTopicFile loads one topic per line from a file.
func readTopicFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// normalize trims, lowercases, drops comments/blanks and duplicates.
func normalize(list []string) []string {
	cleaned := lo.FilterMap(list, func(s string, _ int) (string, bool) {
		s = strings.ToLower(strings.TrimSpace(s))
		return s, s != "" && !strings.HasPrefix(s, "#")
	})
	return lo.Uniq(cleaned)
}

// List returns a copy of the catalog.
func List() []string {
	return append([]string(nil), topics...)
}

// Random returns a cryptographically random topic.
// Falls back to "animals" if the catalog is not loaded.
func Random() string {
	if len(topics) == 0 {
		return "animals"
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(topics))))
	return topics[nBig.Int64()]
}

// Contains reports whether t is in the catalog (case-insensitive).
func Contains(t string) bool {
	return lo.Contains(topics, strings.ToLower(strings.TrimSpace(t)))
}

// Search returns catalog topics containing q (case-insensitive).
// An empty query returns the whole catalog.
func Search(q string) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return List()
	}
	return lo.Filter(topics, func(t string, _ int) bool { return strings.Contains(t, q) })
}

// Stats returns the number of loaded topics.
func Stats() int {
	return len(topics)
}
