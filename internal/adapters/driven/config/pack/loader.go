// Package pack loads pack definitions from YAML files.
//
// Example:
//
//	pack_id: water-safety
//	chunk_size: 900
//	chunk_overlap: 150
//	summarization_enabled: false
//	schedule: 24h
//	default_metadata:
//	  topic: water
//	sources:
//	  - url: https://example.org/boiling
//	    title: Boiling water
//	    metadata: {priority: high}
//	  - url: ./notes/filters.txt
//
// Relative file sources resolve against the definition's directory.
package pack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.PackLoader = (*Loader)(nil)

// Loader reads pack definitions from disk.
type Loader struct{}

// NewLoader creates a pack loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileSource is one entry under sources.
type fileSource struct {
	URL      string         `yaml:"url"`
	Title    string         `yaml:"title"`
	Metadata map[string]any `yaml:"metadata"`
}

// file mirrors the YAML layout. Pointers distinguish unset keys from zero values.
type file struct {
	PackID               string         `yaml:"pack_id"`
	Sources              []fileSource   `yaml:"sources"`
	ChunkSize            *int           `yaml:"chunk_size"`
	ChunkOverlap         *int           `yaml:"chunk_overlap"`
	SummaryModel         *string        `yaml:"summary_model"`
	SummaryTemperature   *float64       `yaml:"summary_temperature"`
	SummaryMaxWords      *int           `yaml:"summary_max_words"`
	SummarizationEnabled *bool          `yaml:"summarization_enabled"`
	RequestTimeout       *duration      `yaml:"request_timeout"`
	BatchSize            *int           `yaml:"batch_size"`
	DefaultMetadata      map[string]any `yaml:"default_metadata"`
	Schedule             *duration      `yaml:"schedule"`
}

// duration accepts Go duration strings ("45s", "24h") or integer seconds.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	if secs, err := strconv.Atoi(node.Value); err == nil {
		*d = duration(time.Duration(secs) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, node.Value)
	}
	*d = duration(v)
	return nil
}

// Load parses and validates the definition at path.
func (l *Loader) Load(path string) (*domain.PackConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading pack definition: %w", domain.ErrConfig, err)
	}

	pack, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range pack.Sources {
		pack.Sources[i].URL = resolveSource(base, pack.Sources[i].URL)
	}
	return pack, nil
}

// Parse decodes a YAML definition, applies defaults and validates it.
func Parse(data []byte) (*domain.PackConfig, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: pack definition is empty", domain.ErrConfig)
		}
		return nil, fmt.Errorf("%w: parsing pack definition: %w", domain.ErrConfig, err)
	}

	pack := domain.DefaultPackConfig()
	pack.PackID = strings.TrimSpace(f.PackID)
	for _, s := range f.Sources {
		pack.Sources = append(pack.Sources, domain.SourceConfig{
			URL:      strings.TrimSpace(s.URL),
			Title:    s.Title,
			Metadata: s.Metadata,
		})
	}
	if f.ChunkSize != nil {
		pack.ChunkSize = *f.ChunkSize
	}
	if f.ChunkOverlap != nil {
		pack.ChunkOverlap = *f.ChunkOverlap
	}
	if f.SummaryModel != nil {
		pack.SummaryModel = *f.SummaryModel
	}
	if f.SummaryTemperature != nil {
		pack.SummaryTemperature = *f.SummaryTemperature
	}
	if f.SummaryMaxWords != nil {
		pack.SummaryMaxWords = *f.SummaryMaxWords
	}
	if f.SummarizationEnabled != nil {
		pack.SummarisationEnabled = *f.SummarizationEnabled
	}
	if f.RequestTimeout != nil {
		pack.RequestTimeout = time.Duration(*f.RequestTimeout)
	}
	if f.BatchSize != nil {
		pack.BatchSize = *f.BatchSize
	}
	if f.DefaultMetadata != nil {
		pack.DefaultMetadata = f.DefaultMetadata
	}
	if f.Schedule != nil {
		pack.Schedule = time.Duration(*f.Schedule)
	}

	if err := pack.Validate(); err != nil {
		return nil, err
	}
	return &pack, nil
}

// resolveSource makes relative file paths absolute against base.
// URLs with a scheme are returned unchanged.
func resolveSource(base, source string) string {
	if u, err := url.Parse(source); err == nil && len(u.Scheme) > 1 {
		return source
	}
	if filepath.IsAbs(source) {
		return source
	}
	return filepath.Join(base, source)
}
