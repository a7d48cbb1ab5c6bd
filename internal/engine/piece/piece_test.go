package piece

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewFromStringNormalizesLineEndings(t *testing.T) {
	tb := NewFromString("a\r\nb\rc\nd")
	if got, want := tb.GetText(), "a\nb\nc\nd"; got != want {
		t.Fatalf("GetText() = %q, want %q", got, want)
	}
}

func TestInsertAtVariousOffsets(t *testing.T) {
	tb := NewFromString("hello")
	tb.Insert(0, ">>")
	tb.Insert(tb.CharCount(), "<<")
	tb.Insert(4, "_")
	if got, want := tb.GetText(), ">>he_llo<<"; got != want {
		t.Fatalf("GetText() = %q, want %q", got, want)
	}
}

func TestDeleteClipsAcrossPieces(t *testing.T) {
	tb := NewFromString("hello")
	tb.Insert(5, " world") // now two pieces: "hello", " world"
	tb.Delete(3, 5)        // delete "lo wo" spanning both pieces
	if got, want := tb.GetText(), "helrld"; got != want {
		t.Fatalf("GetText() = %q, want %q", got, want)
	}
}

func TestReplaceEquivalence(t *testing.T) {
	tb := NewFromString("foo bar baz")
	tb.Replace(4, 3, "qux")
	if got, want := tb.GetText(), "foo qux baz"; got != want {
		t.Fatalf("GetText() = %q, want %q", got, want)
	}
	if got, want := tb.CharCount(), Offset(utf8.RuneCountInString(tb.GetText())); got != want {
		t.Fatalf("CharCount() = %d, want %d", got, want)
	}
}

func TestDeleteStrictlyInsideSinglePiece(t *testing.T) {
	// The delete range must start and end strictly inside one piece, so
	// both kept fragments are emitted from the same split.
	tb := NewFromString("hello world")
	tb.Delete(2, 3)
	if got, want := tb.GetText(), "he world"; got != want {
		t.Fatalf("GetText() = %q, want %q", got, want)
	}
	if got, want := tb.CharCount(), Offset(utf8.RuneCountInString(tb.GetText())); got != want {
		t.Fatalf("CharCount() = %d, want %d", got, want)
	}
}

func TestGetRangeClampsOutOfBounds(t *testing.T) {
	tb := NewFromString("short")
	if got := tb.GetRange(2, 1000); got != "ort" {
		t.Fatalf("GetRange overflow = %q", got)
	}
	if got := tb.GetRange(-5, 2); got != "sh" {
		t.Fatalf("GetRange negative start = %q", got)
	}
}

func TestCharCountUnicode(t *testing.T) {
	tb := NewFromString("a👋b")
	if got, want := tb.CharCount(), Offset(3); got != want {
		t.Fatalf("CharCount() = %d, want %d", got, want)
	}
	if got, want := tb.ByteCount(), len("a👋b"); got != want {
		t.Fatalf("ByteCount() = %d, want %d", got, want)
	}
}

// TestEditSequenceMatchesReference exercises the invariant from spec.md §8
// on one fixed sequence of inserts and a delete: GetText() matches a
// reference string built by the same primitives, and CharCount() equals the
// reference's rune count.
func TestEditSequenceMatchesReference(t *testing.T) {
	tb := New()
	var ref strings.Builder

	apply := func(text string) {
		tb.Insert(Offset(utf8.RuneCountInString(ref.String())), text)
		ref.WriteString(text)
	}
	apply("the quick ")
	apply("brown fox")
	apply(" jumps")

	tb.Delete(4, 6) // remove "quick "
	refRunes := []rune(ref.String())
	refRunes = append(refRunes[:4], refRunes[10:]...)
	ref.Reset()
	ref.WriteString(string(refRunes))

	if got, want := tb.GetText(), ref.String(); got != want {
		t.Fatalf("GetText() = %q, want %q", got, want)
	}
	if got, want := tb.CharCount(), Offset(utf8.RuneCountInString(ref.String())); got != want {
		t.Fatalf("CharCount() = %d, want %d", got, want)
	}
}

func TestEmptyInsertsAndDeletesAreNoops(t *testing.T) {
	tb := NewFromString("abc")
	tb.Insert(1, "")
	tb.Delete(1, 0)
	if got, want := tb.GetText(), "abc"; got != want {
		t.Fatalf("GetText() = %q, want %q", got, want)
	}
}
