package mcp

import (
	"context"
	"fmt"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"astrowheel/internal/metrics"
	"astrowheel/internal/orientation"
	"astrowheel/internal/preset"
	"astrowheel/internal/store"
	"astrowheel/internal/store/memory"
	"astrowheel/internal/wheel"
)

// Options wires the server to its collaborators. Nil fields get defaults:
// built-in wheels and presets, the default migrator, an in-memory session
// store and no metrics.
type Options struct {
	Registry  *wheel.Registry
	Presets   *preset.Catalog
	Migrator  *wheel.Migrator
	Store     store.Store
	Projector *orientation.Projector
	Recorder  *metrics.Recorder
}

type Server struct {
	registry  *wheel.Registry
	presets   *preset.Catalog
	migrator  *wheel.Migrator
	db        store.Store
	projector *orientation.Projector
	recorder  *metrics.Recorder

	// session id -> *sync.Mutex; evaluation of one session is serialised.
	sessions sync.Map

	mcp *sdk.Server
}

func NewServer(opts Options, version string) (*Server, error) {
	s := &Server{
		registry:  opts.Registry,
		presets:   opts.Presets,
		migrator:  opts.Migrator,
		db:        opts.Store,
		projector: opts.Projector,
		recorder:  opts.Recorder,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "astrowheel",
			Version: version,
		}, nil),
	}
	if s.registry == nil {
		s.registry = wheel.NewRegistry()
	}
	if s.presets == nil {
		s.presets = preset.NewCatalog()
	}
	if s.migrator == nil {
		s.migrator = wheel.DefaultMigrator()
	}
	if s.db == nil {
		s.db = memory.New()
	}
	if s.projector == nil {
		var observer orientation.SkipObserver
		if s.recorder != nil {
			observer = s.recorder
		}
		p, err := orientation.NewProjector(orientation.DefaultProjectorCacheSize, observer)
		if err != nil {
			return nil, fmt.Errorf("creating projector: %w", err)
		}
		s.projector = p
	}
	s.registerTools()
	return s, nil
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

func (s *Server) lockSession(id string) (unlock func()) {
	v, _ := s.sessions.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Server) engineOptions() []orientation.EngineOption {
	if s.recorder == nil {
		return nil
	}
	return []orientation.EngineOption{orientation.WithObserver(s.recorder)}
}

// addTool registers h and counts its calls on the recorder, if any.
func addTool[In, Out any](s *Server, tool *sdk.Tool, h sdk.ToolHandlerFor[In, Out]) {
	sdk.AddTool(s.mcp, tool, func(ctx context.Context, req *sdk.CallToolRequest, in In) (*sdk.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, in)
		if s.recorder != nil {
			s.recorder.ToolCalled(tool.Name, err)
		}
		return res, out, err
	})
}
