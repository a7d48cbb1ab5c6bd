// Package piece implements the editor's text store: a piece table over an
// immutable original buffer and an append-only add buffer, addressed in
// character offsets (Unicode scalar values) rather than bytes.
//
// Insert and delete never copy or mutate the original buffer; they split at
// most two pieces and, for inserts, append the new text to the add buffer.
// The store knows nothing about lines, styles, or selections — those live in
// sibling packages layered on top.
package piece

import (
	"strings"
	"unicode/utf8"
)

// Offset is a position or length counted in Unicode scalar values (chars),
// not bytes. It is the fundamental addressing unit for the whole engine.
type Offset int

// source identifies which buffer a piece's bytes live in.
type source uint8

const (
	sourceOriginal source = iota
	sourceAdd
)

// piece is a contiguous run of text taken from one of the two buffers,
// expressed as a [start, start+length) rune range within that buffer.
type piece struct {
	src    source
	start  Offset
	length Offset
}

// Table is a piece-table text store. The zero value is not usable; build one
// with New or NewFromString.
type Table struct {
	original      string
	originalRunes []int // rune index -> byte offset, len == runeCount(original)+1

	add      strings.Builder
	addRunes []int // rune index -> byte offset into add.String(), grown on append

	pieces []piece
	chars  Offset // cached total char count, kept in sync by every mutator
}

// New returns an empty table.
func New() *Table {
	return NewFromString("")
}

// NewFromString builds a table whose initial content is text, with CRLF and
// lone CR normalized to LF on ingest (storage is LF-only).
func NewFromString(text string) *Table {
	norm := NormalizeLineEndings(text)
	t := &Table{
		original:      norm,
		originalRunes: buildRuneIndex(norm),
	}
	t.addRunes = []int{0}
	n := Offset(utf8.RuneCountInString(norm))
	if n > 0 {
		t.pieces = []piece{{src: sourceOriginal, start: 0, length: n}}
	}
	t.chars = n
	return t
}

// NormalizeLineEndings rewrites "\r\n" and lone "\r" to "\n".
func NormalizeLineEndings(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\r' {
			b.WriteRune('\n')
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// buildRuneIndex returns a rune-index -> byte-offset table for s, with a
// trailing sentinel equal to len(s). This lets original-buffer slicing avoid
// rescanning the buffer on every read.
func buildRuneIndex(s string) []int {
	idx := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		idx = append(idx, i)
	}
	idx = append(idx, len(s))
	return idx
}

// CharCount returns the total number of Unicode scalar values stored.
func (t *Table) CharCount() Offset {
	return t.chars
}

// ByteCount returns the total UTF-8 byte length of the stored text.
func (t *Table) ByteCount() int {
	n := 0
	for _, p := range t.pieces {
		n += t.pieceByteLen(p)
	}
	return n
}

func (t *Table) pieceByteLen(p piece) int {
	idx := t.runeIndexFor(p.src)
	return idx[int(p.start+p.length)] - idx[int(p.start)]
}

func (t *Table) runeIndexFor(s source) []int {
	if s == sourceOriginal {
		return t.originalRunes
	}
	return t.addRunes
}

func (t *Table) bufferFor(s source) string {
	if s == sourceOriginal {
		return t.original
	}
	return t.add.String()
}

// sliceOf returns the text in [start, start+length) rune-addressed within
// the given piece's source buffer.
func (t *Table) sliceOf(p piece, start, length Offset) string {
	idx := t.runeIndexFor(p.src)
	buf := t.bufferFor(p.src)
	from := idx[int(p.start+start)]
	to := idx[int(p.start+start+length)]
	return buf[from:to]
}

func (t *Table) pieceText(p piece) string {
	return t.sliceOf(p, 0, p.length)
}

// clamp restricts off to [0, chars].
func (t *Table) clamp(off Offset) Offset {
	if off < 0 {
		return 0
	}
	if off > t.chars {
		return t.chars
	}
	return off
}

// locate finds the piece containing char offset off (0 <= off <= chars) and
// returns its index and the in-piece rune offset. When off equals the end of
// the text, it returns one-past-the-last piece with offset 0, signalling an
// append position.
func (t *Table) locate(off Offset) (pieceIdx int, within Offset) {
	cum := Offset(0)
	for i, p := range t.pieces {
		if off < cum+p.length || (off == cum+p.length && i == len(t.pieces)-1) {
			return i, off - cum
		}
		cum += p.length
	}
	return len(t.pieces), 0
}

// GetText returns the full document text. Use sparingly for large documents.
func (t *Table) GetText() string {
	var b strings.Builder
	b.Grow(t.ByteCount())
	for _, p := range t.pieces {
		b.WriteString(t.pieceText(p))
	}
	return b.String()
}

// GetRange returns the text in the half-open char range [start, start+length).
// Inputs are clamped to the valid range.
func (t *Table) GetRange(start, length Offset) string {
	start = t.clamp(start)
	end := t.clamp(start + length)
	if end <= start {
		return ""
	}

	var b strings.Builder
	cum := Offset(0)
	for _, p := range t.pieces {
		pStart, pEnd := cum, cum+p.length
		cum = pEnd
		if pEnd <= start || pStart >= end {
			continue
		}
		segStart := max(start, pStart) - pStart
		segEnd := min(end, pEnd) - pStart
		b.WriteString(t.sliceOf(p, segStart, segEnd-segStart))
	}
	return b.String()
}

// Insert inserts text at the given char offset, clamped to [0, CharCount()].
// CRLF and lone CR in text are normalized to LF before insertion.
func (t *Table) Insert(at Offset, text string) {
	if text == "" {
		return
	}
	text = NormalizeLineEndings(text)
	at = t.clamp(at)

	newPiece := t.appendToAddBuffer(text)
	idx, within := t.locate(at)

	switch {
	case idx == len(t.pieces):
		t.pieces = append(t.pieces, newPiece)
	case within == 0:
		t.pieces = insertAt(t.pieces, idx, newPiece)
	case within == t.pieces[idx].length:
		t.pieces = insertAt(t.pieces, idx+1, newPiece)
	default:
		orig := t.pieces[idx]
		left := piece{src: orig.src, start: orig.start, length: within}
		right := piece{src: orig.src, start: orig.start + within, length: orig.length - within}
		t.pieces = replaceAt(t.pieces, idx, left, newPiece, right)
	}
	t.chars += Offset(utf8.RuneCountInString(text))
}

// appendToAddBuffer writes text to the append-only add buffer and returns a
// piece referencing it.
func (t *Table) appendToAddBuffer(text string) piece {
	startByte := t.add.Len()
	startRune := Offset(len(t.addRunes) - 1)
	t.add.WriteString(text)

	// addRunes currently ends with the sentinel (== startByte); drop it and
	// append one entry per rune start in the new text, then a fresh sentinel.
	t.addRunes = t.addRunes[:len(t.addRunes)-1]
	for i := range text {
		t.addRunes = append(t.addRunes, startByte+i)
	}
	t.addRunes = append(t.addRunes, t.add.Len())

	n := Offset(utf8.RuneCountInString(text))
	return piece{src: sourceAdd, start: startRune, length: n}
}

// Delete removes the text in the half-open char range [at, at+length).
// Out-of-range deletes are clamped/truncated to the available text.
func (t *Table) Delete(at Offset, length Offset) {
	at = t.clamp(at)
	end := t.clamp(at + length)
	if end <= at {
		return
	}

	var kept []piece
	cum := Offset(0)
	removed := Offset(0)
	for _, p := range t.pieces {
		pStart, pEnd := cum, cum+p.length
		cum = pEnd

		switch {
		case pEnd <= at || pStart >= end:
			kept = append(kept, p)
		case pStart >= at && pEnd <= end:
			removed += p.length
		default:
			// Clip: keep the portion(s) outside [at, end).
			removed += min(pEnd, end) - max(pStart, at)
			if pStart < at {
				keepLen := at - pStart
				kept = append(kept, piece{src: p.src, start: p.start, length: keepLen})
			}
			if pEnd > end {
				skip := end - pStart
				kept = append(kept, piece{src: p.src, start: p.start + skip, length: pEnd - end})
			}
		}
	}
	t.pieces = kept
	t.chars -= removed
}

// Replace substitutes the half-open char range [at, at+length) with text, in
// one logical edit (equivalent to Delete then Insert at the same offset).
func (t *Table) Replace(at Offset, length Offset, text string) {
	at = t.clamp(at)
	if length > 0 {
		t.Delete(at, length)
	}
	if text != "" {
		t.Insert(at, text)
	}
}

func insertAt(s []piece, i int, v piece) []piece {
	s = append(s, piece{})
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func replaceAt(s []piece, i int, vs ...piece) []piece {
	tail := append([]piece{}, s[i+1:]...)
	s = append(s[:i], vs...)
	return append(s, tail...)
}
