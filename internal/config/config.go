package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"casereg/internal/registry"
)

// ColumnsConfig names the source columns. Empty values fall back to
// positional defaults (title in the first column, date in the third).
type ColumnsConfig struct {
	Title string `yaml:"title,omitempty"`
	Date  string `yaml:"date,omitempty"`
}

// SortConfig holds the explicit ordering choice. Both date directions
// exist in real registries, so the direction is configuration, never an
// assumption.
type SortConfig struct {
	Mode      string `yaml:"mode"`      // "cluster" or "date"
	Direction string `yaml:"direction"` // "asc" or "desc"; date mode only
}

// PartitionConfig is one named partition rule.
type PartitionConfig struct {
	Name     string `yaml:"name"`
	Contains string `yaml:"contains"`
}

// ExportConfig holds workbook styling knobs.
type ExportConfig struct {
	FillColor   string `yaml:"fill_color"`
	ChartAnchor string `yaml:"chart_anchor"`
	DateFormat  string `yaml:"date_format"`
}

// Config holds casereg configuration.
type Config struct {
	Version    string            `yaml:"version"`
	Columns    ColumnsConfig     `yaml:"columns,omitempty"`
	Sort       SortConfig        `yaml:"sort,omitempty"`
	Partitions []PartitionConfig `yaml:"partitions"`
	Export     ExportConfig      `yaml:"export,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults: the partition
// rules of the CAS registry and descending date order.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Sort: SortConfig{
			Mode:      "cluster",
			Direction: "desc",
		},
		Partitions: []PartitionConfig{
			{Name: "CAS Web Archives", Contains: "[CAS Web Archives]"},
			{Name: "CAS Bull", Contains: "CAS Bull"},
		},
		Export: ExportConfig{
			FillColor:   "00FF00",
			ChartAnchor: "J2",
			DateFormat:  "2006-01-02",
		},
	}
}

// Path returns the config file location, respecting the CASEREG_CONFIG
// env var.
func Path() string {
	if p := os.Getenv("CASEREG_CONFIG"); p != "" {
		return p
	}
	return "casereg.yaml"
}

// Load reads the config at path. A missing file is not an error: defaults
// apply. Missing fields in an existing file are filled from defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("cannot read config at %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SetValue sets a config value by dot-path key (e.g. "sort.mode").
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "columns.title":
		c.Columns.Title = value
	case "columns.date":
		c.Columns.Date = value
	case "sort.mode":
		if _, err := registry.ParseSortSpec(value, "asc"); err != nil {
			return err
		}
		c.Sort.Mode = value
	case "sort.direction":
		if _, err := registry.ParseSortSpec("date", value); err != nil {
			return err
		}
		c.Sort.Direction = value
	case "export.fill_color":
		c.Export.FillColor = strings.ToUpper(strings.TrimPrefix(value, "#"))
	case "export.chart_anchor":
		c.Export.ChartAnchor = value
	case "export.date_format":
		c.Export.DateFormat = value
	default:
		return fmt.Errorf("unknown config key: %s\nValid keys: columns.title, columns.date, sort.mode, sort.direction, export.fill_color, export.chart_anchor, export.date_format", key)
	}
	return nil
}

// SortSpec validates and converts the configured sort settings.
func (c Config) SortSpec() (registry.SortSpec, error) {
	return registry.ParseSortSpec(c.Sort.Mode, c.Sort.Direction)
}

// Rules converts the configured partitions for the registry engine.
func (c Config) Rules() []registry.Rule {
	rules := make([]registry.Rule, len(c.Partitions))
	for i, p := range c.Partitions {
		rules[i] = registry.Rule{Name: p.Name, Contains: p.Contains}
	}
	return rules
}

// String renders the config as YAML for `casereg config show`.
func (c Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("(unrenderable config: %v)", err)
	}
	return string(data)
}
