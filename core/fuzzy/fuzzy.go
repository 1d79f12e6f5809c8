// Package fuzzy implements ordered-subsequence scoring: every character of
// the term must appear in the candidate in order, not necessarily adjacent.
// Scores reward consecutive runs, string starts, and word-boundary starts,
// and penalize scattered matches. Scores are relative ranking values only;
// they can go negative and are never surfaced as-is.
package fuzzy

import "strings"

// Scoring constants. Tuned for short interactive queries over display text.
const (
	matchScore       = 1  // per matched character
	consecutiveBonus = 8  // match immediately follows the previous one
	startBonus       = 6  // match at position 0 of the candidate
	boundaryBonus    = 10 // match directly after a separator character
	gapPenalty       = 1  // per unmatched character between two matches
)

// separators delimit words for the boundary bonus.
const separators = " -_./\\:()"

func isSeparator(b byte) bool {
	return strings.IndexByte(separators, b) >= 0
}

// ScoreTerm scores a single lowercase term against a lowercase candidate.
// Returns (score, true) when every character of term occurs in candidate in
// order, (0, false) otherwise. A zero-length term trivially matches with
// score 0.
func ScoreTerm(term, candidate string) (int, bool) {
	if term == "" {
		return 0, true
	}

	score := 0
	ti := 0
	prev := -1 // candidate index of the previous match, -1 before the first

	for ci := 0; ci < len(candidate) && ti < len(term); ci++ {
		if candidate[ci] != term[ti] {
			continue
		}
		score += matchScore
		if prev >= 0 {
			if ci == prev+1 {
				score += consecutiveBonus
			} else {
				score -= (ci - prev - 1) * gapPenalty
			}
		}
		if ci == 0 {
			score += startBonus
		} else if isSeparator(candidate[ci-1]) {
			score += boundaryBonus
		}
		prev = ci
		ti++
	}

	if ti < len(term) {
		return 0, false // candidate exhausted before the term
	}
	return score, true
}

// Match evaluates a whole normalized query against a lowercase candidate.
// The query is split on single spaces; every term must subsequence-match
// (AND semantics) and the per-term scores are summed. One failing term
// fails the whole match.
func Match(query, candidate string) (int, bool) {
	total := 0
	for _, term := range strings.Split(query, " ") {
		if term == "" {
			continue
		}
		score, ok := ScoreTerm(term, candidate)
		if !ok {
			return 0, false
		}
		total += score
	}
	return total, true
}
