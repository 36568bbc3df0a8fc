package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"liblinker/internal/config"
	"liblinker/internal/deps"
	"liblinker/internal/manager"
	"liblinker/internal/resolver"
	"liblinker/internal/scheduler"
	"liblinker/internal/tracker"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const Name = "liblinker"

const (
	CommandCheckImports = "liblinker.checkImports"

	MethodHighlights                = "liblinker/highlights"
	MethodDidChangeVisibleDocuments = "liblinker/didChangeVisibleDocuments"
	MethodDidChangeActiveDocument   = "liblinker/didChangeActiveDocument"
)

// HighlightsParams replaces every highlight of a document.
type HighlightsParams struct {
	URI    protocol.DocumentUri `json:"uri"`
	Ranges []protocol.Range     `json:"ranges"`
}

type VisibleDocumentsParams struct {
	Documents []protocol.DocumentUri `json:"documents"`
}

type ActiveDocumentParams struct {
	URI protocol.DocumentUri `json:"uri"`
}

type Server struct {
	version string
	handler *protocol.Handler
	log     commonlog.Logger

	config    config.Config
	root      string
	resolver  *resolver.Resolver
	registry  *deps.Registry
	manager   *manager.DocumentManager
	tracker   *tracker.Tracker
	scheduler *scheduler.Scheduler

	// active is only touched from scheduler tasks.
	active protocol.DocumentUri

	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// New creates the language server and starts its event loop.
func New(version string) *Server {
	ls := &Server{
		version:   version,
		log:       commonlog.GetLogger("liblinker.server"),
		manager:   manager.NewDocumentManager(),
		tracker:   tracker.New(),
		scheduler: scheduler.NewScheduler(64),
	}
	ls.handler = &protocol.Handler{
		Initialize:                     ls.initialize,
		Initialized:                    ls.initialized,
		Shutdown:                       ls.shutdown,
		SetTrace:                       ls.setTrace,
		TextDocumentDidOpen:            ls.textDocumentDidOpen,
		TextDocumentDidChange:          ls.textDocumentDidChange,
		TextDocumentDidClose:           ls.textDocumentDidClose,
		TextDocumentDocumentHighlight:  ls.textDocumentDocumentHighlight,
		WorkspaceExecuteCommand:        ls.workspaceExecuteCommand,
		WorkspaceDidChangeWatchedFiles: ls.workspaceDidChangeWatchedFiles,
	}
	ls.scheduler.RunScheduler()
	return ls
}

// NewServer wraps a new language server in a glsp transport.
func NewServer(version string, debug bool) *server.Server {
	return server.NewServer(New(version), Name, debug)
}

// Handle implements glsp.Handler. The liblinker/* notifications are served
// here; everything else goes to the protocol handler.
func (s *Server) Handle(context *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	s.setNotify(context.Notify)

	switch context.Method {
	case MethodDidChangeVisibleDocuments:
		if !s.handler.IsInitialized() {
			return nil, true, true, errors.New("server not initialized")
		}
		var params VisibleDocumentsParams
		if err = json.Unmarshal(context.Params, &params); err != nil {
			return nil, true, false, err
		}
		return nil, true, true, s.didChangeVisibleDocuments(context, &params)

	case MethodDidChangeActiveDocument:
		if !s.handler.IsInitialized() {
			return nil, true, true, errors.New("server not initialized")
		}
		var params ActiveDocumentParams
		if err = json.Unmarshal(context.Params, &params); err != nil {
			return nil, true, false, err
		}
		return nil, true, true, s.didChangeActiveDocument(context, &params)
	}

	return s.handler.Handle(context)
}

// setNotify keeps the latest notification sink so that highlights caused by
// manifest changes can be sent outside of a request.
func (s *Server) setNotify(notify glsp.NotifyFunc) {
	if notify == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.notify = notify
}

func (s *Server) notifier() glsp.NotifyFunc {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	return s.notify
}

// run executes fn on the event loop and waits for it.
func (s *Server) run(name string, fn func() error) error {
	return s.scheduler.Run(scheduler.Task{Name: name, Execute: fn})
}
