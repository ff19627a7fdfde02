package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical pipeline defaults file.
const DefaultConfigPath = "config/pipeline.defaults.json"

// PipelineConfig holds the tunables of a parse run. Fields are pointers so a
// partial JSON file leaves the rest at their Get* defaults.
type PipelineConfig struct {
	// Filter profile
	Profile      *string `json:"profile,omitempty"`
	ApplyFilters *bool   `json:"apply_filters,omitempty"`
	FilterOrder  *int    `json:"filter_order,omitempty"`

	// Cutoffs used by profiles that take them from configuration
	HighPassCutoffHz *float64 `json:"high_pass_cutoff_hz,omitempty"`
	LowPassCutoffHz  *float64 `json:"low_pass_cutoff_hz,omitempty"`
	NotchFreqHz      *float64 `json:"notch_freq_hz,omitempty"`
	NotchQ           *float64 `json:"notch_q,omitempty"`

	// Reconstruction
	SequenceModulus *int64 `json:"sequence_modulus,omitempty"`

	// Execution
	Workers *int `json:"workers,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// DefaultPipelineConfig returns a config with every field populated with
// its default value.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Profile:          ptrString(ProfileCanonical),
		ApplyFilters:     ptrBool(false),
		FilterOrder:      ptrInt(3),
		HighPassCutoffHz: ptrFloat64(0.5),
		LowPassCutoffHz:  ptrFloat64(5),
		NotchFreqHz:      ptrFloat64(65),
		NotchQ:           ptrFloat64(30),
		SequenceModulus:  ptrInt64(1 << 16),
		Workers:          ptrInt(4),
	}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file. The file must
// have a .json extension and be at most 1 MB.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &PipelineConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks values that are wrong regardless of channel. Cutoffs are
// checked against each channel's Nyquist frequency when its chain is built,
// so a bad cutoff only fails the affected channel.
func (c *PipelineConfig) Validate() error {
	if c.Profile != nil {
		if _, ok := profileBuilders[*c.Profile]; !ok {
			return fmt.Errorf("unknown profile %q (known: %v)", *c.Profile, ProfileNames())
		}
	}
	if c.FilterOrder != nil && *c.FilterOrder < 1 {
		return fmt.Errorf("filter_order must be positive, got %d", *c.FilterOrder)
	}
	if c.HighPassCutoffHz != nil && *c.HighPassCutoffHz <= 0 {
		return fmt.Errorf("high_pass_cutoff_hz must be positive, got %f", *c.HighPassCutoffHz)
	}
	if c.LowPassCutoffHz != nil && *c.LowPassCutoffHz <= 0 {
		return fmt.Errorf("low_pass_cutoff_hz must be positive, got %f", *c.LowPassCutoffHz)
	}
	if c.NotchFreqHz != nil && *c.NotchFreqHz <= 0 {
		return fmt.Errorf("notch_freq_hz must be positive, got %f", *c.NotchFreqHz)
	}
	if c.NotchQ != nil && *c.NotchQ <= 0 {
		return fmt.Errorf("notch_q must be positive, got %f", *c.NotchQ)
	}
	if c.SequenceModulus != nil && *c.SequenceModulus < 2 {
		return fmt.Errorf("sequence_modulus must be at least 2, got %d", *c.SequenceModulus)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

// GetProfile returns the profile name or the default.
func (c *PipelineConfig) GetProfile() string {
	if c.Profile == nil || *c.Profile == "" {
		return ProfileCanonical
	}
	return *c.Profile
}

// GetApplyFilters returns the apply_filters value or the default.
func (c *PipelineConfig) GetApplyFilters() bool {
	if c.ApplyFilters == nil {
		return false
	}
	return *c.ApplyFilters
}

// GetFilterOrder returns the filter_order value or the default.
func (c *PipelineConfig) GetFilterOrder() int {
	if c.FilterOrder == nil {
		return 3
	}
	return *c.FilterOrder
}

// GetHighPassCutoffHz returns the high_pass_cutoff_hz value or the default.
func (c *PipelineConfig) GetHighPassCutoffHz() float64 {
	if c.HighPassCutoffHz == nil {
		return 0.5
	}
	return *c.HighPassCutoffHz
}

// GetLowPassCutoffHz returns the low_pass_cutoff_hz value or the default.
func (c *PipelineConfig) GetLowPassCutoffHz() float64 {
	if c.LowPassCutoffHz == nil {
		return 5
	}
	return *c.LowPassCutoffHz
}

// GetNotchFreqHz returns the notch_freq_hz value or the default.
func (c *PipelineConfig) GetNotchFreqHz() float64 {
	if c.NotchFreqHz == nil {
		return 65
	}
	return *c.NotchFreqHz
}

// GetNotchQ returns the notch_q value or the default.
func (c *PipelineConfig) GetNotchQ() float64 {
	if c.NotchQ == nil {
		return 30
	}
	return *c.NotchQ
}

// GetSequenceModulus returns the sequence_modulus value or the default.
func (c *PipelineConfig) GetSequenceModulus() int64 {
	if c.SequenceModulus == nil {
		return 1 << 16
	}
	return *c.SequenceModulus
}

// GetWorkers returns the workers value or the default.
func (c *PipelineConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

// FilterParams collects the configured filter parameters.
func (c *PipelineConfig) FilterParams() FilterParams {
	return FilterParams{
		Order:   c.GetFilterOrder(),
		LowHz:   c.GetHighPassCutoffHz(),
		HighHz:  c.GetLowPassCutoffHz(),
		NotchHz: c.GetNotchFreqHz(),
		NotchQ:  c.GetNotchQ(),
	}
}

// BuildProfile resolves the configured profile with the configured filter
// parameters.
func (c *PipelineConfig) BuildProfile() (Profile, error) {
	return BuildProfile(c.GetProfile(), c.FilterParams())
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. It panics if the file
// cannot be loaded and is intended for test setup.
func MustLoadDefaultConfig() *PipelineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadPipelineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}
