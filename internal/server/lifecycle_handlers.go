package server

import (
	"context"
	"fmt"
	"os"

	"liblinker/internal/config"
	"liblinker/internal/deps"
	"liblinker/internal/resolver"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	// Root
	root, err := rootFromParams(params)
	if err != nil {
		return nil, err
	}
	s.root = root
	s.log.Infof("Root is %s", root)

	// Config: defaults, then the project file, then initializationOptions.
	base := config.Default()
	if path := config.Find(root); path != "" {
		merged, err := config.Merge(base, path)
		if err != nil {
			s.log.Warningf("Ignoring %s: %s", path, err.Error())
		} else {
			base = merged
		}
	}
	cfg, err := config.Overlay(base, params.InitializationOptions)
	if err != nil {
		return nil, fmt.Errorf("invalid initializationOptions: %w", err)
	}
	s.config = cfg
	s.log.Debugf("Config: %+v", cfg)

	s.resolver = resolver.New(root, cfg.Include, cfg.Exclude)
	s.registry = deps.NewRegistry(deps.Config{
		Root:     root,
		Manifest: cfg.Manifest,
		Fields:   cfg.DependencyFields,
		Debounce: cfg.Debounce(),
	})
	s.startManifestEvents()

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{CommandCheckImports},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	// The first lookup loads the manifest and installs its watch.
	names := s.registry.Names()
	s.log.Infof("Client initialized, %d dependencies known", names.Len())
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.registry != nil {
			err = s.registry.Close()
		}
		s.wg.Wait()
		s.scheduler.StopScheduler()
		s.log.Info("Shut down")
	})
	return err
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) startManifestEvents() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	events := s.registry.Subscribe(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.processManifestEvents(events)
	}()
}

// rootFromParams picks the workspace root: rootUri, then the first
// workspace folder, then rootPath, then the working directory.
func rootFromParams(params *protocol.InitializeParams) (string, error) {
	if params.RootURI != nil && *params.RootURI != "" {
		return resolver.URIToPath(*params.RootURI)
	}
	if len(params.WorkspaceFolders) > 0 {
		return resolver.URIToPath(params.WorkspaceFolders[0].URI)
	}
	if params.RootPath != nil && *params.RootPath != "" {
		return *params.RootPath, nil
	}
	return os.Getwd()
}
