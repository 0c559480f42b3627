package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/diar/pkg/spkcluster"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".diar"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config represents the persisted configuration for a CLI app
type Config struct {
	// AppName is the application name (e.g., "diar")
	AppName string `yaml:"-"`

	// CurrentProfile is the name of the currently active profile
	CurrentProfile string `yaml:"current_profile,omitempty"`

	// Profiles is a map of profile name to clustering profile
	Profiles map[string]*Profile `yaml:"profiles,omitempty"`

	// configPath is the path to the config file
	configPath string
}

// Profile is a named set of clustering tunables. Zero fields take the
// clustering defaults, so an empty profile is valid.
type Profile struct {
	// Name is the profile name
	Name string `yaml:"name"`

	// MaxSpeakers caps the estimated speaker count
	MaxSpeakers int `yaml:"max_speakers,omitempty"`

	// MinSegments is the session size at or below which the eigengap
	// estimator is skipped
	MinSegments int `yaml:"min_segments,omitempty"`

	// EnhancedCountThreshold is the session size at or below which
	// anchored counting runs
	EnhancedCountThreshold int `yaml:"enhanced_count_threshold,omitempty"`

	// MaxPruneRatio bounds the pruning-ratio search range
	MaxPruneRatio float64 `yaml:"max_prune_ratio,omitempty"`

	// SearchVolume is the number of sparse search candidates
	SearchVolume int `yaml:"search_volume,omitempty"`

	// FullSearch tries every candidate ratio instead of the sparse subset
	FullSearch bool `yaml:"full_search,omitempty"`

	// SubsampleTarget bounds the matrix size during the ratio search;
	// negative disables subsampling
	SubsampleTarget int `yaml:"subsample_target,omitempty"`

	// FixedThreshold skips the search with a preset pruning ratio
	FixedThreshold float64 `yaml:"fixed_threshold,omitempty"`

	// Trials is the number of voting k-means runs
	Trials int `yaml:"trials,omitempty"`

	// Seed drives all random draws
	Seed uint64 `yaml:"seed,omitempty"`

	// Tolerance is the merge tolerance in seconds between same-speaker
	// segments when building turns
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Params converts the profile to clustering parameters.
func (p *Profile) Params() spkcluster.Params {
	return spkcluster.Params{
		MaxSpeakers:            p.MaxSpeakers,
		MinSamplesForNME:       p.MinSegments,
		EnhancedCountThreshold: p.EnhancedCountThreshold,
		MaxRPThreshold:         p.MaxPruneRatio,
		SparseSearchVolume:     p.SearchVolume,
		FullSearch:             p.FullSearch,
		SubsampleTarget:        p.SubsampleTarget,
		FixedThreshold:         p.FixedThreshold,
		Trials:                 p.Trials,
		Seed:                   p.Seed,
	}
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	var configPath string

	if customPath != "" {
		configPath = customPath
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, appName, DefaultConfigFile)
	}

	// Ensure config directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Profiles:   make(map[string]*Profile),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create empty config file
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Ensure profiles map is initialized
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*Profile)
	}

	cfg.AppName = appName
	cfg.configPath = configPath

	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddProfile adds a new profile
func (c *Config) AddProfile(name string, p *Profile) error {
	p.Name = name
	c.Profiles[name] = p
	return c.Save()
}

// DeleteProfile removes a profile
func (c *Config) DeleteProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(c.Profiles, name)
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}
	return c.Save()
}

// UseProfile sets the current profile
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	c.CurrentProfile = name
	return c.Save()
}

// GetProfile returns a specific profile
func (c *Config) GetProfile(name string) (*Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// ResolveProfile returns the profile by name, or the current profile if
// name is empty. With no name and no current profile it returns an
// empty profile, which stands for the clustering defaults.
func (c *Config) ResolveProfile(name string) (*Profile, error) {
	if name == "" {
		if c.CurrentProfile == "" {
			return &Profile{}, nil
		}
		return c.GetProfile(c.CurrentProfile)
	}
	return c.GetProfile(name)
}

// ListProfiles returns all profile names, sorted
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
