// Package textsim normalises words and measures lexical similarity.
package textsim

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims whitespace and applies Unicode NFC normalization
// for consistent comparison of words coming from different sources.
func Normalize(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// Levenshtein returns the edit distance between two strings (rune-aware).
// Uses a space-optimized two-row DP implementation.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = min(prev[j], prev[j-1], curr[j-1]) + 1
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

// Similarity returns a similarity score in [0, 1] (1 = identical).
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}

// LengthBound returns the best similarity two strings of the given rune
// lengths could reach. Callers use it to skip the edit distance when the
// length difference alone rules out a match.
func LengthBound(la, lb int) float64 {
	maxL := max(la, lb)
	if maxL == 0 {
		return 1.0
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	return 1.0 - float64(diff)/float64(maxL)
}
