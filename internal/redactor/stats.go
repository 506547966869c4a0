package redactor

import (
	"fmt"
	"sort"
	"strings"
)

// Stats counts what redaction replaced, for one file or a whole backup run.
// JSON documents are re-encoded, so RedactedBytes can exceed OriginalBytes.
type Stats struct {
	Files          int              // Files with at least one match (aggregates only)
	OriginalBytes  int64            // Bytes read
	RedactedBytes  int64            // Bytes written
	LinesProcessed int64            // Lines read
	TotalMatches   int64            // Values replaced by a placeholder
	ByPattern      map[string]int64 // Replacements per tag
}

// PatternCount is the number of replacements made for one tag.
type PatternCount struct {
	Pattern string
	Count   int64
}

func NewStats() *Stats {
	return &Stats{ByPattern: make(map[string]int64)}
}

// record counts one match for tag. A nil receiver records nothing.
func (s *Stats) record(tag string) {
	if s == nil {
		return
	}
	s.TotalMatches++
	s.ByPattern[tag]++
}

// Changed reports whether anything was replaced.
func (s *Stats) Changed() bool {
	return s != nil && s.TotalMatches > 0
}

// SecretFields returns how many values were replaced because of their key name.
func (s *Stats) SecretFields() int64 {
	return s.ByPattern[secretFieldTag]
}

// Add merges the stats of one file into s.
func (s *Stats) Add(file *Stats) {
	if file == nil {
		return
	}
	if file.Changed() {
		s.Files++
	}
	s.OriginalBytes += file.OriginalBytes
	s.RedactedBytes += file.RedactedBytes
	s.LinesProcessed += file.LinesProcessed
	s.TotalMatches += file.TotalMatches
	for tag, n := range file.ByPattern {
		s.ByPattern[tag] += n
	}
}

// Summary returns the per-tag counts, largest first, ties by tag name.
func (s *Stats) Summary() []PatternCount {
	counts := make([]PatternCount, 0, len(s.ByPattern))
	for tag, n := range s.ByPattern {
		counts = append(counts, PatternCount{Pattern: tag, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Pattern < counts[j].Pattern
	})
	return counts
}

// String formats the stats as e.g. "3 matches (SECRET_FIELD: 2, EMAIL: 1)".
func (s *Stats) String() string {
	if !s.Changed() {
		return "no redactions"
	}

	parts := make([]string, 0, len(s.ByPattern))
	for _, pc := range s.Summary() {
		parts = append(parts, fmt.Sprintf("%s: %d", pc.Pattern, pc.Count))
	}

	noun := "matches"
	if s.TotalMatches == 1 {
		noun = "match"
	}
	return fmt.Sprintf("%d %s (%s)", s.TotalMatches, noun, strings.Join(parts, ", "))
}
