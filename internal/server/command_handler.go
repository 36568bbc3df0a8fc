package server

import (
	"errors"
	"fmt"
	"path/filepath"

	"liblinker/internal/deps"
	"liblinker/internal/resolver"
	"liblinker/internal/scheduler"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) workspaceExecuteCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	switch params.Command {
	case CommandCheckImports:
		return nil, s.checkImports(params.Arguments)
	default:
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
}

// checkImports rescans the document named by the first argument, or the
// active one, whether or not it was already processed.
func (s *Server) checkImports(arguments []any) error {
	var uri protocol.DocumentUri
	if len(arguments) > 0 {
		arg, ok := arguments[0].(string)
		if !ok {
			return fmt.Errorf("%s: expected a document uri, got %T", CommandCheckImports, arguments[0])
		}
		uri = arg
	}
	return s.run("checkImports", func() error {
		if uri == "" {
			uri = s.active
		}
		if uri == "" {
			s.log.Info("checkImports: no active document")
			return nil
		}
		return s.scanDocument(uri)
	})
}

func (s *Server) workspaceDidChangeWatchedFiles(
	context *glsp.Context,
	params *protocol.DidChangeWatchedFilesParams,
) error {
	for _, change := range params.Changes {
		path, err := resolver.URIToPath(change.URI)
		if err != nil {
			continue
		}
		if filepath.Clean(path) == s.registry.Path() {
			// A change publishes an event handled by processManifestEvents.
			s.registry.Reload()
			return nil
		}
	}
	return nil
}

// processManifestEvents schedules a rescan of the stale tracked documents
// for every dependency change until events is closed.
func (s *Server) processManifestEvents(events <-chan deps.Event) {
	for ev := range events {
		current := ev.Current
		s.log.Infof("Dependencies changed (%d -> %d), rescanning", ev.Previous.Len(), current.Len())
		err := s.scheduler.Schedule(scheduler.Task{
			Name:    "manifestChanged",
			Execute: func() error { return s.rescanStale(current) },
		})
		if errors.Is(err, scheduler.ErrStopped) {
			return
		}
	}
}

// rescanStale rescans every tracked document whose last scan ran against a
// different dependency set.
func (s *Server) rescanStale(current deps.Set) error {
	fingerprint := current.Fingerprint()
	var errs []error
	for _, uri := range s.tracker.Tracked() {
		if state, ok := s.manager.State(uri); ok && state.DepsFingerprint == fingerprint {
			continue
		}
		if err := s.scanDocument(uri); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
