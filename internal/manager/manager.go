package manager

import (
	"errors"
	"fmt"
	"sync"

	"liblinker/internal/scan"
	"liblinker/internal/textedit"

	"github.com/cespare/xxhash/v2"
)

var ErrNotLoaded = errors.New("document not loaded")

// ScanState is the outcome of the last full scan of a document. It is
// replaced as a whole on every scan.
type ScanState struct {
	Result scan.Result
	// DepsFingerprint identifies the dependency set the scan ran against.
	DepsFingerprint uint64
	// TextHash identifies the text the scan ran against.
	TextHash uint64
}

// Current reports whether the state was computed from text against the
// dependency set with the given fingerprint.
func (st ScanState) Current(text string, fingerprint uint64) bool {
	return st.TextHash == HashText(text) && st.DepsFingerprint == fingerprint
}

// DocumentManager holds the text and the last scan state of each open URI.
type DocumentManager struct {
	mu     sync.Mutex
	docs   map[string]string
	states map[string]ScanState
}

// NewDocumentManager creates an initialized DocumentManager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		docs:   make(map[string]string),
		states: make(map[string]ScanState),
	}
}

// HashText is the text hash stored in ScanState.
func HashText(text string) uint64 {
	return xxhash.Sum64String(text)
}

// Open stores the full text of a document, replacing any previous text.
func (dm *DocumentManager) Open(uri string, text string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs[uri] = text
}

// Text returns the current text of a document.
func (dm *DocumentManager) Text(uri string) (string, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return "", fmt.Errorf("%s: %w", uri, ErrNotLoaded)
	}
	return doc, nil
}

// ApplyChanges applies LSP content change events in order. The stored text
// is left untouched when any of them fails.
func (dm *DocumentManager) ApplyChanges(uri string, changes []any) (string, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return "", fmt.Errorf("%s: %w", uri, ErrNotLoaded)
	}
	for _, change := range changes {
		var err error
		doc, err = textedit.ApplyChange(doc, change)
		if err != nil {
			return "", fmt.Errorf("apply change to %s: %w", uri, err)
		}
	}
	dm.docs[uri] = doc
	return doc, nil
}

func (dm *DocumentManager) SetState(uri string, state ScanState) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.states[uri] = state
}

func (dm *DocumentManager) State(uri string) (ScanState, bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	state, ok := dm.states[uri]
	return state, ok
}

// Release frees text and state for a URI.
func (dm *DocumentManager) Release(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.docs, uri)
	delete(dm.states, uri)
}
