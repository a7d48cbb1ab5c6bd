package delta

import "testing"

func TestApplyEditsTransformsPreToPost(t *testing.T) {
	d := New(5) // "hello"
	d.Add(NewReplaceEdit(1, "ello", "i"))
	got := d.Apply("hello")
	if got != "hi" {
		t.Fatalf("Apply = %q, want %q", got, "hi")
	}
	if d.AfterCharCount != 2 {
		t.Fatalf("AfterCharCount = %d, want 2", d.AfterCharCount)
	}
}

func TestInvertRoundTrips(t *testing.T) {
	d := New(5)
	d.Add(NewDeleteEdit(1, "ell"))
	post := d.Apply("hello")
	if post != "ho" {
		t.Fatalf("Apply = %q, want ho", post)
	}

	inv := d.Invert()
	restored := inv.Apply(post)
	if restored != "hello" {
		t.Fatalf("inverted apply = %q, want hello", restored)
	}
}

func TestMultiEditDescendingOffsetOrder(t *testing.T) {
	// Two carets, descending offset order (second caret's edit listed first).
	d := New(5) // "abcde", carets at 1 and 3
	d.Add(NewInsertEdit(3, "!"))
	d.Add(NewInsertEdit(1, "!"))

	text := "abcde"
	got := d.Apply(text)
	if got != "a!bc!de" {
		t.Fatalf("Apply = %q, want a!bc!de", got)
	}
}
