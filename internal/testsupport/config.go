package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"osmworld/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory with fast
// poll intervals. Boundary polygon files are created for the default two
// regions.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OSMFile = filepath.Join(base, "planet.o5m")
	cfgVal.Paths.OSMCutDir = filepath.Join(base, "cut")
	cfgVal.Paths.OutputDir = filepath.Join(base, "world")
	cfgVal.Paths.FinalOutputDir = filepath.Join(base, "final")
	cfgVal.Paths.TmpDir = filepath.Join(base, "tmp")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Pipeline.FillPollMS = 5
	cfgVal.Pipeline.DrainPollMS = 5
	cfgVal.Pipeline.Boundaries = []string{
		filepath.Join(base, "area_0.poly"),
		filepath.Join(base, "area_1.poly"),
	}

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}

	for _, boundary := range builder.cfg.Pipeline.Boundaries {
		Touch(t, boundary)
	}
	Touch(t, builder.cfg.Paths.OSMFile)
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithBoundaries replaces the region list with names created under the base
// directory.
func WithBoundaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Boundaries = b.cfg.Pipeline.Boundaries[:0]
		for _, name := range names {
			b.cfg.Pipeline.Boundaries = append(b.cfg.Pipeline.Boundaries, filepath.Join(b.baseDir, name))
		}
	}
}

// WithMerge enables the merge stage.
func WithMerge(compress bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.MergeTiles = true
		b.cfg.Merge.Compress = compress
	}
}

// WithStubbedTools writes shell stand-ins for every external tool, points the
// configuration at them, and records each invocation in CallLog(cfg).
func WithStubbedTools() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		write := func(name, body string) string {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(body), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			return target
		}

		b.t.Setenv(CallLogEnv, filepath.Join(b.baseDir, "calls.log"))
		b.cfg.Tools.OSMConvert = []string{write("osmconvert", osmconvertStub)}
		b.cfg.Tools.Java = write("java", splitterStub)
		b.cfg.Tools.OSM2Hydro = []string{write("osm2hydro", osm2hydroStub)}
		b.cfg.Tools.GDALMerge = []string{write("gdal_merge.py", gdalMergeStub)}
		b.cfg.Tools.Pigz = write("pigz", pigzStub)

		b.cfg.Tools.SplitterJar = filepath.Join(b.baseDir, "splitter.jar")
		b.cfg.Tools.OSM2HydroConfig = filepath.Join(b.baseDir, "osm2tiff.ini")
		Touch(b.t, b.cfg.Tools.SplitterJar)
		Touch(b.t, b.cfg.Tools.OSM2HydroConfig)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
