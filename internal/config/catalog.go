package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"

	"gopkg.in/yaml.v3"
)

// Catalog lists the scenarios and breakdowns the dashboard offers, plus the
// assumptions applied on first load.
type Catalog struct {
	EVEScenarios       []string           `yaml:"eve_scenarios" json:"eve_scenarios"`
	NIIBreakdowns      []string           `yaml:"nii_breakdowns" json:"nii_breakdowns"`
	DefaultAssumptions domain.Assumptions `yaml:"default_assumptions" json:"default_assumptions"`
}

// DefaultCatalog is used when no SCENARIOS_FILE is configured.
func DefaultCatalog() *Catalog {
	return &Catalog{
		EVEScenarios: []string{
			domain.BaseCase,
			"Parallel Up +200bps",
			"Parallel Down -200bps",
			"Short Rates Up +100bps",
			"Short Rates Down -100bps",
			"Long Rates Up +100bps",
		},
		NIIBreakdowns: []string{
			domain.BreakdownInstrument,
			domain.BreakdownType,
			domain.BreakdownBucket,
		},
		DefaultAssumptions: domain.DefaultAssumptions(),
	}
}

// LoadCatalog reads a YAML catalog. An empty path returns the defaults;
// sections missing from the file keep their default values.
func LoadCatalog(path string) (*Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario catalog: %w", err)
	}
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("parse scenario catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("scenario catalog %s: %w", path, err)
	}
	return cat, nil
}

// Validate rejects catalogs the dashboard could not render.
func (c *Catalog) Validate() error {
	if len(c.EVEScenarios) == 0 {
		return &domain.ErrValidation{Field: "eve_scenarios", Message: "at least one scenario required"}
	}
	seen := make(map[string]bool, len(c.EVEScenarios))
	for _, s := range c.EVEScenarios {
		if s == "" {
			return &domain.ErrValidation{Field: "eve_scenarios", Message: "scenario names must not be empty"}
		}
		// Scenarios travel comma-joined in one query value.
		if strings.Contains(s, ",") {
			return &domain.ErrValidation{Field: "eve_scenarios", Message: "scenario names must not contain commas: " + s}
		}
		if seen[s] {
			return &domain.ErrValidation{Field: "eve_scenarios", Message: "duplicate scenario " + s}
		}
		seen[s] = true
	}
	for _, b := range c.NIIBreakdowns {
		if !domain.ValidBreakdown(b) {
			return &domain.ErrValidation{Field: "nii_breakdowns", Message: "unknown breakdown " + b}
		}
	}
	return c.DefaultAssumptions.Validate()
}
