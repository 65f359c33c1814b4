package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ukydev/fleet-lifecycle/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPolicy is returned when policy validation fails.
var ErrInvalidPolicy = errors.New("invalid status policy")

// CategoryRule overrides the policy defaults for one document category.
type CategoryRule struct {
	Days         *int  `yaml:"days"`
	TracksExpiry *bool `yaml:"tracks_expiry"`
}

// Policy holds the expiring-soon windows. Windows are configured per
// document category; categories without a rule use DefaultDays.
type Policy struct {
	DefaultDays   int                     `yaml:"default_days"`
	InsuranceDays int                     `yaml:"insurance_days"`
	Categories    map[string]CategoryRule `yaml:"categories"`
}

// DefaultPolicy returns a policy with the 30 day window everywhere.
func DefaultPolicy() *Policy {
	return &Policy{
		DefaultDays:   DefaultWindowDays,
		InsuranceDays: DefaultWindowDays,
		Categories:    map[string]CategoryRule{},
	}
}

// LoadPolicy reads a YAML policy from path, merging it over the defaults.
// An empty path or a missing file yields the defaults.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPolicy(), nil
		}
		return nil, fmt.Errorf("failed to read status policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes YAML policy data over the defaults and validates it.
func ParsePolicy(data []byte) (*Policy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse status policy: %w", err)
	}
	if p.Categories == nil {
		p.Categories = map[string]CategoryRule{}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate rejects negative windows.
func (p *Policy) Validate() error {
	if p.DefaultDays < 0 {
		return fmt.Errorf("%w: default_days must be >= 0, got %d", ErrInvalidPolicy, p.DefaultDays)
	}
	if p.InsuranceDays < 0 {
		return fmt.Errorf("%w: insurance_days must be >= 0, got %d", ErrInvalidPolicy, p.InsuranceDays)
	}
	for name, rule := range p.Categories {
		if rule.Days != nil && *rule.Days < 0 {
			return fmt.Errorf("%w: categories.%s.days must be >= 0, got %d", ErrInvalidPolicy, name, *rule.Days)
		}
	}
	return nil
}

// WindowDays returns the expiring-soon window for a document category.
func (p *Policy) WindowDays(category string) int {
	if rule, ok := p.Categories[category]; ok && rule.Days != nil {
		return *rule.Days
	}
	return p.DefaultDays
}

// TracksExpiry reports whether documents of category carry an expiry at all.
func (p *Policy) TracksExpiry(category string) bool {
	if rule, ok := p.Categories[category]; ok && rule.TracksExpiry != nil {
		return *rule.TracksExpiry
	}
	return true
}

// DocumentStatus derives the status of d at now.
func (p *Policy) DocumentStatus(d models.Document, now time.Time) models.Status {
	if d.ExpirationDate == nil && !p.TracksExpiry(d.Category) {
		return models.StatusNotApplicable
	}
	return Derive(models.KindDocument, d.IssueDate, d.ExpirationDate, now, p.WindowDays(d.Category))
}

// InsuranceStatus derives the status of i at now.
func (p *Policy) InsuranceStatus(i models.Insurance, now time.Time) models.Status {
	return Derive(models.KindInsurance, i.StartDate, i.EndDate, now, p.InsuranceDays)
}
