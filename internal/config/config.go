package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"osmworld/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input, output, and scratch locations.
type Paths struct {
	OSMFile        string `toml:"osm_file"`
	OSMCutDir      string `toml:"osm_cut_dir"`
	OutputDir      string `toml:"output_dir"`
	FinalOutputDir string `toml:"final_output_dir"`
	TmpDir         string `toml:"tmp_dir"`
	LogDir         string `toml:"log_dir"`
}

// Tools contains the command lines of the external programs. Argv-style
// entries are a program followed by fixed leading arguments.
type Tools struct {
	OSMConvert      []string `toml:"osmconvert"`
	Java            string   `toml:"java"`
	JavaHeap        string   `toml:"java_heap"`
	SplitterJar     string   `toml:"splitter_jar"`
	OSM2Hydro       []string `toml:"osm2hydro"`
	OSM2HydroConfig string   `toml:"osm2hydro_config"`
	GDALMerge       []string `toml:"gdal_merge"`
	Pigz            string   `toml:"pigz"`
	PigzThreads     int      `toml:"pigz_threads"`
	Cleanup         []string `toml:"cleanup"`
}

// Pipeline contains stage switches and scheduling parameters.
type Pipeline struct {
	MaxCPU       int      `toml:"max_cpu"`
	Boundaries   []string `toml:"boundaries"`
	Extract      bool     `toml:"extract"`
	DeleteShapes bool     `toml:"delete_shapes"`
	MergeTiles   bool     `toml:"merge_tiles"`
	PassExtent   bool     `toml:"pass_extent"`
	Overlap      int      `toml:"overlap"`
	HashMemory   int      `toml:"hash_memory"`
	FillPollMS   int      `toml:"fill_poll_ms"`
	DrainPollMS  int      `toml:"drain_poll_ms"`
}

// Merge contains the final raster merge settings.
type Merge struct {
	Patterns        []string `toml:"patterns"`
	NoData          int      `toml:"nodata"`
	CreationOptions []string `toml:"creation_options"`
	Compress        bool     `toml:"compress"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for osmworld.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Tools    Tools    `toml:"tools"`
	Pipeline Pipeline `toml:"pipeline"`
	Merge    Merge    `toml:"merge"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path, and whether that path existed. An explicit path
// that does not exist is a configuration error.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if strings.TrimSpace(path) != "" && !exists {
		return nil, resolvedPath, false, services.Wrap(services.ErrConfiguration, "config", "load", fmt.Sprintf("configuration file %s not found", resolvedPath), nil)
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, !info.IsDir(), nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the output, final output, scratch, and log
// directories. The cut-out directory is created too since extraction writes
// into it.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OSMCutDir, c.Paths.OutputDir, c.Paths.FinalOutputDir, c.Paths.TmpDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FillInterval returns the pool polling interval while slots are full.
func (c *Config) FillInterval() time.Duration {
	return time.Duration(c.Pipeline.FillPollMS) * time.Millisecond
}

// DrainInterval returns the pool polling interval after the last launch.
func (c *Config) DrainInterval() time.Duration {
	return time.Duration(c.Pipeline.DrainPollMS) * time.Millisecond
}

// JobEnv returns the environment overlay applied to every external tool.
func (c *Config) JobEnv() []string {
	if strings.TrimSpace(c.Paths.TmpDir) == "" {
		return nil
	}
	return []string{"GDAL_DENSITY_TMP=" + c.Paths.TmpDir}
}

// Marshal renders the effective configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left untouched.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
