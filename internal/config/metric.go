// Package config loads metric settings from YAML and server settings from
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/baditaflorin/go_table_similarity/internal/core/cost"
	"github.com/baditaflorin/go_table_similarity/internal/core/ted"
)

var (
	// ErrInvalidThreshold is returned when the threshold is outside [0,1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")
	// ErrInvalidMaxNodes is returned for a negative node limit.
	ErrInvalidMaxNodes = errors.New("max_nodes must not be negative")
)

// Metric is the on-disk form of a TEDS metric configuration.
type Metric struct {
	StructureOnly      bool     `yaml:"structure_only"`
	IgnoreTags         []string `yaml:"ignore_tags"`
	Algorithm          string   `yaml:"algorithm"`
	EmptyTextPolicy    string   `yaml:"empty_text_policy"`
	MaxNodes           int      `yaml:"max_nodes"`
	Sanitize           bool     `yaml:"sanitize"`
	PreserveEmptyCells bool     `yaml:"preserve_empty_cells"`
	Threshold          *float64 `yaml:"threshold"`
}

// DefaultThreshold is the pass threshold used when none is configured.
const DefaultThreshold = 0.5

// LoadMetric reads a metric configuration file.
func LoadMetric(path string) (*Metric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metric config: %w", err)
	}
	return ParseMetric(data)
}

// ParseMetric decodes a YAML metric configuration, applies defaults and
// validates the result.
func ParseMetric(data []byte) (*Metric, error) {
	var m Metric
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing metric config: %w", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metric config: %w", err)
	}
	return &m, nil
}

func (m *Metric) applyDefaults() {
	if m.IgnoreTags == nil {
		m.IgnoreTags = []string{"tbody", "thead", "tfoot"}
	}
	if m.Algorithm == "" {
		m.Algorithm = ted.DPAlgorithmType.String()
	}
	if m.Threshold == nil {
		th := DefaultThreshold
		m.Threshold = &th
	}
	for i, tag := range m.IgnoreTags {
		m.IgnoreTags[i] = strings.ToLower(strings.TrimSpace(tag))
	}
}

// Validate checks the configuration values.
func (m *Metric) Validate() error {
	if m.Threshold != nil && (*m.Threshold < 0 || *m.Threshold > 1) {
		return ErrInvalidThreshold
	}
	if m.MaxNodes < 0 {
		return ErrInvalidMaxNodes
	}
	if _, err := ted.ParseAlgorithmType(m.Algorithm); err != nil {
		return err
	}
	if m.EmptyTextPolicy != "" {
		if _, err := cost.ParseEmptyTextPolicy(m.EmptyTextPolicy); err != nil {
			return err
		}
	}
	return nil
}

// AlgorithmType returns the parsed algorithm, DP when unset.
func (m *Metric) AlgorithmType() ted.AlgorithmType {
	t, _ := ted.ParseAlgorithmType(m.Algorithm)
	return t
}

// EmptyText returns the configured empty-text policy, or the algorithm's
// default when none is set.
func (m *Metric) EmptyText() cost.EmptyTextPolicy {
	if p, err := cost.ParseEmptyTextPolicy(m.EmptyTextPolicy); err == nil && m.EmptyTextPolicy != "" {
		return p
	}
	return ted.DefaultEmptyTextPolicy(m.AlgorithmType())
}

// ThresholdValue returns the threshold, DefaultThreshold when unset.
func (m *Metric) ThresholdValue() float64 {
	if m.Threshold == nil {
		return DefaultThreshold
	}
	return *m.Threshold
}
