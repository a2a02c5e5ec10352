package preflight

import (
	"context"
	"fmt"
	"strings"

	"osmworld/internal/config"
	"osmworld/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for cfg. Input checks for stages
// that are switched off are skipped.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results,
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Cut-out directory", cfg.Paths.OSMCutDir),
		CheckDirectoryAccess("Temporary directory", cfg.Paths.TmpDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	)
	if cfg.Pipeline.MergeTiles {
		results = append(results, CheckDirectoryAccess("Final output directory", cfg.Paths.FinalOutputDir))
	}

	if cfg.Pipeline.Extract {
		results = append(results, CheckFileReadable("OSM planet file", cfg.Paths.OSMFile))
	}
	for _, boundary := range cfg.Pipeline.Boundaries {
		results = append(results, CheckFileReadable("Boundary "+boundary, boundary))
	}
	results = append(results,
		CheckFileReadable("Splitter jar", cfg.Tools.SplitterJar),
		CheckFileReadable("osm2hydro config", cfg.Tools.OSM2HydroConfig),
	)

	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromStatus(status))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// CheckSystemDeps evaluates the external programs the configured stages use.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "osmconvert",
			Command:     first(cfg.Tools.OSMConvert),
			Description: "Required to cut regions from the planet file",
			Optional:    !cfg.Pipeline.Extract,
		},
		{
			Name:        "Java",
			Command:     cfg.Tools.Java,
			Description: "Required to run the tile splitter",
		},
		{
			Name:        "osm2hydro",
			Command:     first(cfg.Tools.OSM2Hydro),
			Description: "Required to convert tiles",
		},
	}
	if cfg.Pipeline.DeleteShapes {
		requirements = append(requirements, deps.Requirement{
			Name:        "Cleanup",
			Command:     first(cfg.Tools.Cleanup),
			Description: "Required to delete intermediate shapes",
		})
	}
	if cfg.Pipeline.MergeTiles {
		requirements = append(requirements, deps.Requirement{
			Name:        "gdal_merge",
			Command:     first(cfg.Tools.GDALMerge),
			Description: "Required to merge tile rasters",
		})
		if cfg.Merge.Compress {
			requirements = append(requirements, deps.Requirement{
				Name:        "pigz",
				Command:     cfg.Tools.Pigz,
				Description: "Required to compress merged rasters",
			})
		}
	}
	return deps.CheckBinaries(requirements)
}

func fromStatus(status deps.Status) Result {
	name := "Tool " + status.Name
	if status.Available {
		return Result{Name: name, Passed: true, Detail: status.Path}
	}
	detail := status.Detail
	if status.Optional {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not needed)", detail)}
	}
	if status.Description != "" {
		detail = fmt.Sprintf("%s; %s", detail, strings.ToLower(status.Description))
	}
	return Result{Name: name, Detail: detail}
}

func first(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return argv[0]
}
