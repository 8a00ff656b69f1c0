// Package daily picks the topic of the day.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// TopicIndex returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % n.
func TopicIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Topic is the pick for one day.
type Topic struct {
	Date  string `json:"date"`
	Topic string `json:"topic"`
}

// Pick returns the topic of the day from catalog, or an empty Topic when the
// catalog is empty.
func Pick(now time.Time, salt string, catalog []string) Topic {
	d := Topic{Date: DateKey(now)}
	if len(catalog) == 0 {
		return d
	}
	d.Topic = catalog[TopicIndex(now, salt, len(catalog))]
	return d
}
