package postprocessors

import (
	"fmt"
	"sort"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/postprocessors/summary"
)

// BuilderFunc creates a PostProcessor from generic config.
// Config is a map of processor-specific settings derived from a pack definition.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Ensure Registry implements the interface.
var _ driven.PipelineFactory = (*Registry)(nil)

// Registry maps processor names to their builders.
// The ingestor builds one pipeline per pack from it, so processors pick up
// each pack's chunking and summary settings.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new processor registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a processor builder to the registry.
// Name should be unique and match the processor's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a processor by name with the given config.
// Returns error if the processor name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor: %s", name)
	}
	return builder(cfg)
}

// Has returns true if a processor with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildPipeline creates the pipeline for a pack. When summarise is requested
// but no summary processor is registered, the pipeline runs without it.
func (r *Registry) BuildPipeline(pack *domain.PackConfig, summarise bool) (*Pipeline, error) {
	names, cfgs := PipelineConfig(pack, summarise && r.Has(summary.Name))
	p := NewPipeline()
	for _, name := range names {
		proc, err := r.Build(name, cfgs[name])
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", name, err)
		}
		p.Add(proc)
	}
	return p, nil
}

// Pipeline implements driven.PipelineFactory.
func (r *Registry) Pipeline(pack *domain.PackConfig, summarise bool) (driven.PostProcessorPipeline, error) {
	p, err := r.BuildPipeline(pack, summarise)
	if err != nil {
		return nil, err
	}
	return p, nil
}
