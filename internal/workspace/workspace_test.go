package workspace

import (
	"testing"
)

func TestOpenLookupClose(t *testing.T) {
	w := New()
	a := w.Open("file:///a.txt", "aaa")
	b := w.Open("file:///b.txt", "bbb")
	if a == b {
		t.Fatal("ids must be distinct")
	}
	if w.Active() != a {
		t.Fatalf("active = %d, want first-opened %d", w.Active(), a)
	}

	id, err := w.Lookup("file:///b.txt")
	if err != nil || id != b {
		t.Fatalf("lookup = %d, %v", id, err)
	}

	// Re-opening a URI returns the existing document.
	if again := w.Open("file:///a.txt", "ignored"); again != a {
		t.Fatalf("reopen = %d, want %d", again, a)
	}
	doc, err := w.Get(a)
	if err != nil || doc.Text() != "aaa" {
		t.Fatalf("reopen replaced content: %v", err)
	}

	if err := w.Close(a); err != nil {
		t.Fatalf("close: %v", err)
	}
	if w.Active() != b {
		t.Fatalf("active after close = %d, want %d", w.Active(), b)
	}
	if _, err := w.Lookup("file:///a.txt"); err == nil {
		t.Fatal("closed URI still resolvable")
	}
	if _, err := w.Get(a); err == nil {
		t.Fatal("closed id still resolvable")
	}
}

func TestAnonymousDocuments(t *testing.T) {
	w := New()
	a := w.Open("", "scratch")
	b := w.Open("", "scratch")
	if a == b {
		t.Fatal("anonymous documents must get distinct ids")
	}
	if w.Len() != 2 {
		t.Fatalf("len = %d", w.Len())
	}
}

func TestSetActiveValidates(t *testing.T) {
	w := New()
	if err := w.SetActive(42); err == nil {
		t.Fatal("expected error for unknown id")
	}
	id := w.Open("", "x")
	if err := w.SetActive(id); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if w.ActiveDocument() == nil {
		t.Fatal("active document nil")
	}
}
