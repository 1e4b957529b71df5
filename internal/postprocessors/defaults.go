package postprocessors

import (
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/postprocessors/chunker"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/postprocessors/summary"
)

// RegisterDefaults registers all built-in processors with the registry.
// The summary processor is only registered when a summariser is available.
func RegisterDefaults(r *Registry, summariser driven.Summariser) {
	r.Register(chunker.Name, buildChunker)
	if summariser != nil {
		r.Register(summary.Name, func(cfg map[string]any) (driven.PostProcessor, error) {
			return summary.New(summariser, driven.SummariseOptions{
				MaxWords:    getIntFromConfig(cfg, "max_words"),
				Model:       getStringFromConfig(cfg, "model"),
				Temperature: getFloatFromConfig(cfg, "temperature"),
			}), nil
		})
	}
}

// DefaultRegistry returns a registry with the built-in processors.
func DefaultRegistry(summariser driven.Summariser) *Registry {
	r := NewRegistry()
	RegisterDefaults(r, summariser)
	return r
}

// PipelineConfig returns the processor names and configs for a pack.
// Summarisation is included only when summarise is true.
func PipelineConfig(pack *domain.PackConfig, summarise bool) ([]string, map[string]map[string]any) {
	names := []string{chunker.Name}
	cfgs := map[string]map[string]any{
		chunker.Name: {
			"pack_id":          pack.PackID,
			"chunk_size":       pack.ChunkSize,
			"overlap":          pack.ChunkOverlap,
			"default_metadata": pack.DefaultMetadata,
		},
	}
	if summarise {
		names = append(names, summary.Name)
		cfgs[summary.Name] = map[string]any{
			"max_words":   pack.SummaryMaxWords,
			"model":       pack.SummaryModel,
			"temperature": pack.SummaryTemperature,
		}
	}
	return names, cfgs
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - pack_id (string): Pack used to build document ids
//   - chunk_size (int): Characters per chunk (default: 900)
//   - overlap (int): Overlapping characters between chunks (default: 150)
//   - default_metadata (map): Pack-level metadata layer
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		opts = append(opts, chunker.WithPackID(getStringFromConfig(cfg, "pack_id")))
		if _, ok := cfg["chunk_size"]; ok {
			opts = append(opts, chunker.WithChunkSize(getIntFromConfig(cfg, "chunk_size")))
		}
		if _, ok := cfg["overlap"]; ok {
			opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
		}
		if m, ok := cfg["default_metadata"].(map[string]any); ok {
			opts = append(opts, chunker.WithDefaultMetadata(m))
		}
	}

	return chunker.New(opts...)
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func getFloatFromConfig(cfg map[string]any, key string) float64 {
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func getStringFromConfig(cfg map[string]any, key string) string {
	s, _ := cfg[key].(string)
	return s
}
