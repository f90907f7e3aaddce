// Package config holds the settings of all tools. Values come from the
// built-in defaults, then an optional YAML file, then the environment; the
// command line overrides all of them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Instrument InstrumentConfig `yaml:"instrument"`
	InputGen   InputGenConfig   `yaml:"inputgen"`
	Prettify   PrettifyConfig   `yaml:"prettify"`
	CI         CIConfig         `yaml:"ci"`
	JobScript  JobScriptConfig  `yaml:"jobscript"`
}

type InstrumentConfig struct {
	Root       string   `yaml:"root"`
	Extensions []string `yaml:"extensions"`
	Routines   []string `yaml:"routines"`
	Workers    int      `yaml:"workers"`
}

type InputGenConfig struct {
	References      string  `yaml:"references"`
	MinSize         int     `yaml:"min_size"`
	MaxSize         int     `yaml:"max_size"`
	EnergyFactor    float64 `yaml:"energy_factor"`
	LatticeConstant float64 `yaml:"lattice_constant"`
	OutputPattern   string  `yaml:"output_pattern"`
	OutputDir       string  `yaml:"output_dir"`
}

type PrettifyConfig struct {
	Upcase        bool              `yaml:"upcase"`
	NormalizeUse  bool              `yaml:"normalize_use"`
	Replace       bool              `yaml:"replace"`
	Replacements  map[string]string `yaml:"replacements"`
	InterfacesDir string            `yaml:"interfaces_dir"`
	Workers       int               `yaml:"workers"`
}

type CIConfig struct {
	Root string `yaml:"root"`
	// Make lists the build tool candidates, the first one found is used.
	Make            []string `yaml:"make"`
	ArchCommand     []string `yaml:"arch_command"`
	DebugBuild      string   `yaml:"debug_build"`
	OptimizedBuild  string   `yaml:"optimized_build"`
	TemplateGlob    string   `yaml:"template_glob"`
	TemplateCommand []string `yaml:"template_command"`
	SynopsisGlobs   []string `yaml:"synopsis_globs"`
	VCSStatus       []string `yaml:"vcs_status"`
	VCSDiff         []string `yaml:"vcs_diff"`
}

type JobScriptConfig struct {
	Scheduler  string `yaml:"scheduler"`
	Executable string `yaml:"executable"`
	Nodes      int    `yaml:"nodes"`
	Tasks      int    `yaml:"tasks"`
	Walltime   string `yaml:"walltime"`
	Account    string `yaml:"account"`
	Queue      string `yaml:"queue"`
}

func DefaultConfig() *Config {
	return &Config{
		Instrument: InstrumentConfig{
			Root:       "src",
			Extensions: []string{"f90", "f"},
			Routines: []string{
				"section_create",
				"keyword_create",
				"cp_print_key_section_create",
				"add_format_keyword",
			},
			Workers: 4,
		},
		InputGen: InputGenConfig{
			References:      "LJ_known_minima.txt",
			MinSize:         2,
			MaxSize:         39,
			EnergyFactor:    0.00099999,
			LatticeConstant: 1.5,
			OutputPattern:   "LJ%03d.inp",
			OutputDir:       ".",
		},
		Prettify: PrettifyConfig{
			Upcase:       true,
			NormalizeUse: true,
			Replace:      false,
			Replacements: map[string]string{},
			Workers:      4,
		},
		CI: CIConfig{
			Root:            ".",
			Make:            []string{"/usr/bin/gnumake", "gmake", "make"},
			ArchCommand:     []string{"tools/get_arch_code"},
			DebugBuild:      "sdbg",
			OptimizedBuild:  "sopt",
			TemplateGlob:    "*.instantiation",
			TemplateCommand: []string{"python", "../tools/instantiateTemplates.py"},
			SynopsisGlobs:   []string{"cp_*.F", "pao_*.F"},
			VCSStatus:       []string{"git", "status", "--short"},
			VCSDiff:         []string{"git", "diff"},
		},
		JobScript: JobScriptConfig{
			Scheduler:  "slurm",
			Executable: "cp2k.popt",
			Nodes:      1,
			Tasks:      1,
			Walltime:   "01:00:00",
		},
	}
}

// Load reads the configuration from a YAML file. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if root := os.Getenv("FORTOOLS_ROOT"); root != "" {
		c.CI.Root = root
		c.Instrument.Root = filepath.Join(root, "src")
	}
	if workers := os.Getenv("FORTOOLS_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("FORTOOLS_WORKERS: %w", err)
		}
		c.Instrument.Workers = n
		c.Prettify.Workers = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Instrument.Workers < 1 || c.Prettify.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.InputGen.MinSize < 1 || c.InputGen.MaxSize < c.InputGen.MinSize {
		return fmt.Errorf("inputgen size range %d..%d is empty", c.InputGen.MinSize, c.InputGen.MaxSize)
	}
	if c.InputGen.LatticeConstant <= 0 {
		return fmt.Errorf("inputgen lattice_constant must be positive")
	}
	if len(c.CI.Make) == 0 {
		return fmt.Errorf("ci make needs at least one candidate")
	}
	if len(c.Instrument.Routines) == 0 {
		return fmt.Errorf("instrument routines must not be empty")
	}
	return nil
}
