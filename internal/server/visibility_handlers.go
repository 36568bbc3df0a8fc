package server

import (
	"github.com/tliron/glsp"
)

// didChangeVisibleDocuments reconciles the tracked documents with the set
// the client shows. Only newly visible documents are scanned.
func (s *Server) didChangeVisibleDocuments(context *glsp.Context, params *VisibleDocumentsParams) error {
	return s.run("visibleDocuments", func() error {
		diff, err := s.tracker.Update(params.Documents, s.scanDocument)
		s.log.Debugf("visible documents: %d added, %d removed, %d unchanged",
			len(diff.Added), len(diff.Removed), len(diff.Unchanged))
		if err != nil {
			s.log.Warningf("%s", err.Error())
		}
		return nil
	})
}

func (s *Server) didChangeActiveDocument(context *glsp.Context, params *ActiveDocumentParams) error {
	return s.run("activeDocument", func() error {
		s.active = params.URI
		if params.URI == "" {
			return nil
		}
		if _, err := s.tracker.Show(params.URI, s.scanDocument); err != nil {
			s.log.Warningf("%s", err.Error())
		}
		return nil
	})
}
