package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Seed describes monitors and channels imported into an empty store on
// first boot. Subsequent boots leave an already-populated store alone.
type Seed struct {
	Monitors []SeedMonitor `yaml:"monitors"`
	Notify   []SeedChannel `yaml:"channels"`
}

type SeedMonitor struct {
	Name           string            `yaml:"name"`
	Types          []string          `yaml:"types"`
	Target         string            `yaml:"target"`
	Interval       int               `yaml:"interval,omitempty"`
	Timeout        int               `yaml:"timeout,omitempty"`
	Method         string            `yaml:"method,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	Body           string            `yaml:"body,omitempty"`
	ExpectedStatus int               `yaml:"expected_status,omitempty"`
	Keyword        string            `yaml:"keyword,omitempty"`
	Port           int               `yaml:"port,omitempty"`
	NotifyChannels []string          `yaml:"notify_channels,omitempty"`
	Tags           []string          `yaml:"tags,omitempty"`
	Enabled        *bool             `yaml:"enabled,omitempty"` // nil means true
}

type SeedChannel struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Config  map[string]string `yaml:"config"`
	Enabled *bool             `yaml:"enabled,omitempty"` // nil means true
}

// LoadSeed parses a seed file and validates every monitor in it.
func LoadSeed(path string) (*Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	for i := range s.Monitors {
		tgt := s.Monitors[i].ToTarget()
		if err := tgt.Validate(); err != nil {
			return nil, fmt.Errorf("seed monitor %d (%s): %w", i, s.Monitors[i].Name, err)
		}
	}
	for i, c := range s.Notify {
		if c.Name == "" || c.Type == "" {
			return nil, fmt.Errorf("seed channel %d: name and type are required", i)
		}
	}
	return &s, nil
}

func (m SeedMonitor) ToTarget() *domain.Target {
	types := make([]domain.CheckType, 0, len(m.Types))
	for _, s := range m.Types {
		types = append(types, domain.CheckType(s))
	}
	t := &domain.Target{
		Name:           m.Name,
		Types:          types,
		Address:        m.Target,
		Interval:       m.Interval,
		Timeout:        m.Timeout,
		Method:         m.Method,
		Headers:        m.Headers,
		Body:           m.Body,
		ExpectedStatus: m.ExpectedStatus,
		Keyword:        m.Keyword,
		Port:           m.Port,
		NotifyChannels: m.NotifyChannels,
		Tags:           m.Tags,
		Enabled:        m.Enabled == nil || *m.Enabled,
	}
	t.Normalize()
	return t
}

func (c SeedChannel) ToChannel() *domain.Channel {
	return &domain.Channel{
		Name:     c.Name,
		Provider: c.Type,
		Config:   c.Config,
		Enabled:  c.Enabled == nil || *c.Enabled,
	}
}
