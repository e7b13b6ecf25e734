// Package seacor provides a high-level façade over the expert orchestration
// core (registry, planner, orchestrator & evolution) enabling rapid
// construction of self-evolving expert crews. Most applications interact with
// this package by:
//  1. Creating a Seacor via New() with a completion provider
//  2. Processing queries with ProcessQuery
//  3. Optionally applying roster proposals with ApplyEvolution
//
// The façade delegates query handling to orchestrator.Orchestrator while
// keeping setup ergonomics concise. Defaults are safe for local development;
// production deployments typically supply a configuration directory and a
// structured logger.
package seacor

import (
	"context"
	"fmt"

	"github.com/seacor-ai/seacor/config"
	"github.com/seacor-ai/seacor/evolution"
	"github.com/seacor-ai/seacor/expert"
	"github.com/seacor-ai/seacor/logging"
	"github.com/seacor-ai/seacor/model"
	"github.com/seacor-ai/seacor/orchestrator"
	"github.com/seacor-ai/seacor/tool"
)

// Options configures the Seacor instance.
type Options struct {
	// ConfigDir is the configuration directory holding experts.yaml and
	// tools.yaml. Empty disables file-based configuration; experts are then
	// synthesized on demand.
	ConfigDir string

	// HistoryPath is the JSONL file recording assessment history. Empty
	// disables recording.
	HistoryPath string

	// EnableAssessment switches the background self-assessment cycle on.
	EnableAssessment bool

	// Tools overrides the tool set bound to synthesized experts. When nil
	// and a ConfigDir is set, the tools declared in tools.yaml are used;
	// otherwise web search and code analysis are bound by default.
	Tools []tool.Tool

	// MaxExpertise caps the capabilities taken from expertise analysis.
	MaxExpertise int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Seacor is the high-level façade aggregating the registry, orchestrator and
// evolution store.
type Seacor struct {
	opts         Options
	registry     *expert.Registry
	orchestrator *orchestrator.Orchestrator
	store        *evolution.Store
}

// New creates a Seacor instance around a completion provider with optional
// overrides. When a configuration directory is given, the roster and tool
// catalog are loaded from it; load failures are returned, not degraded.
func New(provider model.Provider, optFns ...func(o *Options)) (*Seacor, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	registry := expert.NewRegistry(opts.Logger)
	tools := opts.Tools

	var store *evolution.Store
	if opts.ConfigDir != "" {
		loader, err := config.NewLoader(opts.ConfigDir, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}

		built := loader.BuildTools(provider)
		if tools == nil && len(built) > 0 {
			tools = make([]tool.Tool, 0, len(built))
			for _, name := range []string{tool.WebSearchName, tool.CodeAnalysisName} {
				if t, ok := built[name]; ok {
					tools = append(tools, t)
				}
			}
		}

		for _, def := range loader.ExpertDefinitions() {
			registry.Register(expert.New(def, loader.ToolsFor(def, built), opts.Logger))
		}

		store = evolution.NewStore(opts.ConfigDir, "", opts.Logger)
	}

	if tools == nil {
		tools = []tool.Tool{
			tool.NewWebSearchTool(provider),
			tool.NewCodeAnalysisTool(provider),
		}
	}

	var cycle orchestrator.AssessmentCycle
	if opts.EnableAssessment {
		var tracker *evolution.Tracker
		if opts.HistoryPath != "" {
			tracker = evolution.NewTracker(opts.HistoryPath, opts.Logger)
		}
		cycle = evolution.NewCycle(evolution.NewAssessor(provider, opts.Logger), tracker, opts.Logger)
	}

	o := orchestrator.New(registry, provider, func(oo *orchestrator.Options) {
		oo.Tools = tools
		oo.MaxExpertise = opts.MaxExpertise
		oo.Assessment = cycle
		oo.Logger = opts.Logger
	})

	return &Seacor{
		opts:         opts,
		registry:     registry,
		orchestrator: o,
		store:        store,
	}, nil
}

// Registry exposes the expert pool, e.g. for pre-registering custom experts.
func (s *Seacor) Registry() *expert.Registry { return s.registry }

// ProcessQuery runs the full pipeline for one query and returns the merged
// answer. It never returns an error; failures are rendered into the answer.
func (s *Seacor) ProcessQuery(ctx context.Context, query string) string {
	return s.orchestrator.ProcessQuery(ctx, query)
}

// Wait blocks until all background assessment cycles have finished. Mainly
// useful before shutdown and in tests.
func (s *Seacor) Wait() {
	s.orchestrator.Wait()
}

// ApplyEvolution applies a roster proposal to the configuration directory
// after taking a backup, returning the backup path for a later Rollback.
// Requires a ConfigDir.
func (s *Seacor) ApplyEvolution(p evolution.Proposal) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("evolution requires a configuration directory")
	}
	return s.store.Apply(p)
}

// Rollback restores the configuration directory from a backup taken by
// ApplyEvolution.
func (s *Seacor) Rollback(backupDir string) error {
	if s.store == nil {
		return fmt.Errorf("evolution requires a configuration directory")
	}
	return s.store.Rollback(backupDir)
}
