package server

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	return s.run("didOpen", func() error {
		s.manager.Open(uri, params.TextDocument.Text)
		if _, err := s.tracker.Show(uri, s.scanDocument); err != nil {
			s.log.Warningf("%s", err.Error())
		}
		return nil
	})
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	return s.run("didChange", func() error {
		text, err := s.manager.ApplyChanges(uri, params.ContentChanges)
		if err != nil {
			return fmt.Errorf("unexpected error during edit: %w", err)
		}
		if !s.tracker.IsTracked(uri) {
			return nil
		}
		// An edit that restores the scanned text keeps the client's highlights.
		if state, ok := s.manager.State(uri); ok && state.Current(text, s.registry.Names().Fingerprint()) {
			s.log.Debugf("%s unchanged since last scan", uri)
			return nil
		}
		if err := s.scanDocument(uri); err != nil {
			s.log.Warningf("rescan %s: %s", uri, err.Error())
		}
		return nil
	})
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	return s.run("didClose", func() error {
		s.tracker.Hide(uri)
		s.manager.Release(uri)
		if s.active == uri {
			s.active = ""
		}
		return nil
	})
}

// textDocumentDocumentHighlight returns every highlight of the symbol under
// the cursor, taken from the last scan of the document.
func (s *Server) textDocumentDocumentHighlight(
	context *glsp.Context,
	params *protocol.DocumentHighlightParams,
) ([]protocol.DocumentHighlight, error) {
	var highlights []protocol.DocumentHighlight
	err := s.run("documentHighlight", func() error {
		state, ok := s.manager.State(params.TextDocument.URI)
		if !ok {
			return nil
		}
		name, ok := state.Result.SymbolAt(params.Position)
		if !ok {
			return nil
		}
		kind := protocol.DocumentHighlightKindText
		for _, r := range state.Result.RangesOf(name) {
			highlights = append(highlights, protocol.DocumentHighlight{Range: r, Kind: &kind})
		}
		return nil
	})
	return highlights, err
}
