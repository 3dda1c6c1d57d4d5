package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	Resolver struct {
		MavenRepository string `yaml:"maven_repository"`
		Index           string `yaml:"index"`    // JSON symbol index, optional
		Database        string `yaml:"database"` // symbol cache and scan history
		DisableCache    bool   `yaml:"disable_cache"`
	} `yaml:"resolver"`
	Scan struct {
		Workers          int  `yaml:"workers"`
		IncludeTests     bool `yaml:"include_tests"`
		FailOnUnresolved bool `yaml:"fail_on_unresolved"`
	} `yaml:"scan"`
	Output struct {
		Format      string `yaml:"format"`
		MetricsFile string `yaml:"metrics_file"`
	} `yaml:"output"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Resolver.Database = "depsweep.db"
	cfg.Scan.Workers = runtime.NumCPU()
	cfg.Scan.IncludeTests = true
	cfg.Output.Format = "table"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if repo := os.Getenv("DEPSWEEP_MAVEN_REPO"); repo != "" {
		cfg.Resolver.MavenRepository = repo
	}
	if index := os.Getenv("DEPSWEEP_INDEX"); index != "" {
		cfg.Resolver.Index = index
	}
	if db := os.Getenv("DEPSWEEP_DB"); db != "" {
		cfg.Resolver.Database = db
	}
	if workers := os.Getenv("DEPSWEEP_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("invalid DEPSWEEP_WORKERS %q: %w", workers, err)
		}
		cfg.Scan.Workers = n
	}
	if format := os.Getenv("DEPSWEEP_FORMAT"); format != "" {
		cfg.Output.Format = format
	}

	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = runtime.NumCPU()
	}
	return cfg, nil
}
