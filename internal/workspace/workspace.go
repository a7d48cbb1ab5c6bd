// Package workspace is the multi-document registry: stable opaque document
// ids, open/close, an active-document slot, and URI lookup. File I/O and
// path handling stay with the host; the registry only maps identities to
// in-memory documents.
//
// Grounded on original_source/crates/editor-core/src/workspace.rs's
// registry, expressed with Go maps and an insertion-order slice instead of
// the original's ordered-map types.
package workspace

import (
	"errors"

	"github.com/windoze/editor-core-go/internal/engine/document"
)

// DocumentID identifies one open document. IDs are never reused within a
// workspace's lifetime.
type DocumentID uint64

// ErrNotFound is returned when a document id or URI is not open.
var ErrNotFound = errors.New("workspace: document not found")

type entry struct {
	id  DocumentID
	uri string
	doc *document.Document
}

// Workspace owns a set of open documents.
type Workspace struct {
	docs   map[DocumentID]*entry
	byURI  map[string]DocumentID
	order  []DocumentID
	active DocumentID
	nextID DocumentID
}

// New returns an empty workspace.
func New() *Workspace {
	return &Workspace{
		docs:   make(map[DocumentID]*entry),
		byURI:  make(map[string]DocumentID),
		nextID: 1,
	}
}

// Open creates a document from text and registers it, optionally under a
// URI (empty means anonymous/untitled). The first opened document becomes
// active. Opening a URI that is already open returns the existing id.
func (w *Workspace) Open(uri, text string, opts ...document.Option) DocumentID {
	if uri != "" {
		if id, ok := w.byURI[uri]; ok {
			return id
		}
	}
	id := w.nextID
	w.nextID++
	e := &entry{id: id, uri: uri, doc: document.New(text, opts...)}
	w.docs[id] = e
	if uri != "" {
		w.byURI[uri] = id
	}
	w.order = append(w.order, id)
	if w.active == 0 {
		w.active = id
	}
	return id
}

// Close removes a document. If it was active, the earliest remaining open
// document becomes active.
func (w *Workspace) Close(id DocumentID) error {
	e, ok := w.docs[id]
	if !ok {
		return ErrNotFound
	}
	delete(w.docs, id)
	if e.uri != "" {
		delete(w.byURI, e.uri)
	}
	for i, did := range w.order {
		if did == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	if w.active == id {
		w.active = 0
		if len(w.order) > 0 {
			w.active = w.order[0]
		}
	}
	return nil
}

// Get returns the document for id.
func (w *Workspace) Get(id DocumentID) (*document.Document, error) {
	e, ok := w.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.doc, nil
}

// Lookup resolves a URI to its open document id.
func (w *Workspace) Lookup(uri string) (DocumentID, error) {
	id, ok := w.byURI[uri]
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

// URI returns the URI a document was opened under, or "".
func (w *Workspace) URI(id DocumentID) string {
	if e, ok := w.docs[id]; ok {
		return e.uri
	}
	return ""
}

// Active returns the active document id, or 0 when the workspace is empty.
func (w *Workspace) Active() DocumentID {
	return w.active
}

// SetActive selects the active document.
func (w *Workspace) SetActive(id DocumentID) error {
	if _, ok := w.docs[id]; !ok {
		return ErrNotFound
	}
	w.active = id
	return nil
}

// ActiveDocument returns the active document, or nil when none is open.
func (w *Workspace) ActiveDocument() *document.Document {
	if e, ok := w.docs[w.active]; ok {
		return e.doc
	}
	return nil
}

// Len returns the number of open documents.
func (w *Workspace) Len() int {
	return len(w.docs)
}

// IDs returns every open document id in opening order.
func (w *Workspace) IDs() []DocumentID {
	out := make([]DocumentID, len(w.order))
	copy(out, w.order)
	return out
}
