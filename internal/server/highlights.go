package server

import (
	"errors"
	"fmt"
	"os"

	"liblinker/internal/manager"
	"liblinker/internal/resolver"
	"liblinker/internal/scan"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// scanDocument runs the full pipeline over the current text of uri, stores
// the new scan state and sends the highlights. Documents outside the
// include globs are skipped. Must run on the event loop.
func (s *Server) scanDocument(uri protocol.DocumentUri) error {
	if !s.resolver.MatchesURI(uri) {
		s.log.Debugf("Skipping %s", uri)
		return nil
	}
	text, err := s.documentText(uri)
	if err != nil {
		return err
	}

	set := s.registry.Names()
	var dependencies scan.Dependencies = set
	if s.config.SubpathImports {
		dependencies = scan.WithSubpaths(set)
	}
	result := scan.Highlight(text, dependencies)

	s.manager.SetState(uri, manager.ScanState{
		Result:          result,
		DepsFingerprint: set.Fingerprint(),
		TextHash:        manager.HashText(text),
	})
	s.log.Debugf("%s: %d imports, %d highlights", uri, len(result.Imports), len(result.Ranges))
	s.emit(uri, result.Ranges)
	return nil
}

// documentText returns the open text of uri, falling back to the file on
// disk for documents the client shows without having opened them.
func (s *Server) documentText(uri protocol.DocumentUri) (string, error) {
	text, err := s.manager.Text(uri)
	if !errors.Is(err, manager.ErrNotLoaded) {
		return text, err
	}
	path, perr := resolver.URIToPath(uri)
	if perr != nil {
		return "", err
	}
	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return "", fmt.Errorf("%w: %w", err, rerr)
	}
	return string(data), nil
}

// emit replaces the highlights of uri on the client.
func (s *Server) emit(uri protocol.DocumentUri, ranges []scan.Range) {
	notify := s.notifier()
	if notify == nil {
		return
	}
	if ranges == nil {
		ranges = []protocol.Range{}
	}
	notify(MethodHighlights, HighlightsParams{URI: uri, Ranges: ranges})

	if s.config.PublishDiagnostics {
		notify(string(protocol.ServerTextDocumentPublishDiagnostics), protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: highlightDiagnostics(ranges),
		})
	}
}

func highlightDiagnostics(ranges []scan.Range) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(ranges))

	severity := protocol.DiagnosticSeverityHint
	source := Name
	for _, r := range ranges {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    r,
			Severity: &severity,
			Source:   &source,
			Message:  "used library import",
		})
	}
	return diagnostics
}
