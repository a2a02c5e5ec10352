package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizePipeline()
	c.normalizeMerge()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"paths.osm_file", &c.Paths.OSMFile, ""},
		{"paths.osm_cut_dir", &c.Paths.OSMCutDir, "."},
		{"paths.output_dir", &c.Paths.OutputDir, ""},
		{"paths.final_output_dir", &c.Paths.FinalOutputDir, "."},
		{"paths.tmp_dir", &c.Paths.TmpDir, "."},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			trimmed = field.def
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.OSMConvert = trimArgv(c.Tools.OSMConvert)
	c.Tools.OSM2Hydro = trimArgv(c.Tools.OSM2Hydro)
	c.Tools.GDALMerge = trimArgv(c.Tools.GDALMerge)
	c.Tools.Cleanup = trimArgv(c.Tools.Cleanup)
	c.Tools.Java = strings.TrimSpace(c.Tools.Java)
	c.Tools.JavaHeap = strings.TrimSpace(c.Tools.JavaHeap)
	c.Tools.SplitterJar = strings.TrimSpace(c.Tools.SplitterJar)
	c.Tools.OSM2HydroConfig = strings.TrimSpace(c.Tools.OSM2HydroConfig)
	c.Tools.Pigz = strings.TrimSpace(c.Tools.Pigz)
	if c.Tools.PigzThreads <= 0 {
		c.Tools.PigzThreads = defaultPigzThreads
	}
}

func (c *Config) normalizePipeline() {
	for i, boundary := range c.Pipeline.Boundaries {
		c.Pipeline.Boundaries[i] = strings.TrimSpace(boundary)
	}
}

func (c *Config) normalizeMerge() {
	patterns := c.Merge.Patterns[:0]
	for _, pattern := range c.Merge.Patterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	c.Merge.Patterns = patterns
	c.Merge.CreationOptions = trimArgv(c.Merge.CreationOptions)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func trimArgv(argv []string) []string {
	out := make([]string, 0, len(argv))
	for _, arg := range argv {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
