package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"osmworld/internal/services"
)

// Validate ensures the configuration is usable. Every failure matches
// services.ErrConfiguration.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validatePaths,
		c.validateTools,
		c.validatePipeline,
		c.validateMerge,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func missing(key, message string) error {
	return services.Wrap(services.ErrConfiguration, "config", key, message, nil)
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OSMFile) == "" {
		return missing("paths.osm_file", "must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return missing("paths.output_dir", "must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	argv := map[string][]string{
		"tools.osmconvert": c.Tools.OSMConvert,
		"tools.osm2hydro":  c.Tools.OSM2Hydro,
		"tools.cleanup":    c.Tools.Cleanup,
	}
	for _, key := range []string{"tools.osmconvert", "tools.osm2hydro", "tools.cleanup"} {
		if len(argv[key]) == 0 {
			return missing(key, "command must not be empty")
		}
	}
	if c.Tools.Java == "" {
		return missing("tools.java", "must be set")
	}
	if c.Tools.SplitterJar == "" {
		return missing("tools.splitter_jar", "must be set")
	}
	if c.Tools.OSM2HydroConfig == "" {
		return missing("tools.osm2hydro_config", "must be set")
	}
	if c.Pipeline.MergeTiles {
		if len(c.Tools.GDALMerge) == 0 {
			return missing("tools.gdal_merge", "command must not be empty")
		}
		if c.Merge.Compress && c.Tools.Pigz == "" {
			return missing("tools.pigz", "must be set when merge.compress is enabled")
		}
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxCPU <= 0 {
		return missing("pipeline.max_cpu", fmt.Sprintf("must be positive (got %d)", c.Pipeline.MaxCPU))
	}
	if len(c.Pipeline.Boundaries) == 0 {
		return missing("pipeline.boundaries", "at least one region boundary is required")
	}
	// Region paths are keyed on the boundary's base name.
	seen := make(map[string]string, len(c.Pipeline.Boundaries))
	for i, boundary := range c.Pipeline.Boundaries {
		trimmed := strings.TrimSpace(boundary)
		if trimmed == "" {
			return missing("pipeline.boundaries", fmt.Sprintf("entry %d is empty", i))
		}
		name := filepath.Base(trimmed)
		if prev, dup := seen[name]; dup {
			return missing("pipeline.boundaries", fmt.Sprintf("duplicate boundary name %q (%s and %s)", name, prev, boundary))
		}
		seen[name] = boundary
	}
	if c.Pipeline.Overlap <= 0 {
		return missing("pipeline.overlap", "must be positive")
	}
	if c.Pipeline.HashMemory <= 0 {
		return missing("pipeline.hash_memory", "must be positive")
	}
	if c.Pipeline.FillPollMS <= 0 || c.Pipeline.DrainPollMS <= 0 {
		return missing("pipeline.fill_poll_ms", "poll intervals must be positive")
	}
	return nil
}

func (c *Config) validateMerge() error {
	if c.Pipeline.MergeTiles && len(c.Merge.Patterns) == 0 {
		return missing("merge.patterns", "at least one pattern is required when pipeline.merge_tiles is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return missing("logging.format", fmt.Sprintf("unsupported value %q (want console or json)", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return missing("logging.level", fmt.Sprintf("unsupported value %q", c.Logging.Level))
	}
	return nil
}
