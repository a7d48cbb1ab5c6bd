// Package segment provides Unicode-correct grapheme-cluster and word
// boundary helpers, backing cursor motion and delete-by-grapheme/word
// commands. Per the design note in spec.md §9, boundaries must use a full
// Unicode algorithm rather than ad-hoc character-class rules; every string,
// ASCII or not, is segmented through uniseg.
package segment

import (
	"unicode"

	"github.com/rivo/uniseg"
)

// GraphemeBoundaries returns the rune-offsets, relative to the start of s,
// at which extended grapheme clusters begin. The returned slice always
// starts with 0 and ends with the rune length of s.
func GraphemeBoundaries(s string) []int {
	if s == "" {
		return []int{0}
	}
	bounds := []int{0}
	runeIdx := 0
	state := -1
	remaining := s
	for len(remaining) > 0 {
		cluster, rest, _, newState := uniseg.StepString(remaining, state)
		state = newState
		runeIdx += runeCount(cluster)
		bounds = append(bounds, runeIdx)
		remaining = rest
	}
	return bounds
}

// NextGraphemeBoundary returns the rune offset of the grapheme boundary
// strictly after from (clamped to the text length).
func NextGraphemeBoundary(s string, from int) int {
	bounds := GraphemeBoundaries(s)
	for _, b := range bounds {
		if b > from {
			return b
		}
	}
	return bounds[len(bounds)-1]
}

// PrevGraphemeBoundary returns the rune offset of the grapheme boundary
// strictly before from (clamped to 0).
func PrevGraphemeBoundary(s string, from int) int {
	bounds := GraphemeBoundaries(s)
	prev := 0
	for _, b := range bounds {
		if b >= from {
			break
		}
		prev = b
	}
	return prev
}

// wordSegment is one UAX#29 word-boundary run: a maximal span of either
// word characters, whitespace, or punctuation.
type wordSegment struct {
	start, end int // rune offsets
	isWord     bool
}

// wordSegments splits s into UAX#29 word-boundary runs using uniseg, tagging
// each run as "word-like" (contains a letter, digit, or underscore) or not,
// per spec.md §4.7's "`_` plus alphanumerics are word chars" rule.
func wordSegments(s string) []wordSegment {
	if s == "" {
		return nil
	}
	var segs []wordSegment
	runeIdx := 0
	state := -1
	remaining := s
	for len(remaining) > 0 {
		word, rest, newState := uniseg.FirstWordInString(remaining, state)
		state = newState
		n := runeCount(word)
		segs = append(segs, wordSegment{
			start:  runeIdx,
			end:    runeIdx + n,
			isWord: containsWordRune(word),
		})
		runeIdx += n
		remaining = rest
	}
	return segs
}

func containsWordRune(s string) bool {
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// NextWordBoundary returns the rune offset of the start of the next
// word-like run strictly after from, or the text length if none remains.
// This matches MoveWordRight semantics.
func NextWordBoundary(s string, from int) int {
	runes := []rune(s)
	for _, seg := range wordSegments(s) {
		if seg.isWord && seg.start > from {
			return seg.start
		}
	}
	return len(runes)
}

// PrevWordBoundary returns the rune offset of the start of the word-like run
// at or immediately before from, matching MoveWordLeft semantics.
func PrevWordBoundary(s string, from int) int {
	best := 0
	for _, seg := range wordSegments(s) {
		if seg.start >= from {
			break
		}
		if seg.isWord {
			best = seg.start
		}
	}
	return best
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
