package config

const (
	defaultConfigPath  = "~/.config/osmworld/config.toml"
	projectConfigName  = "osmworld.toml"
	defaultOSMFile     = "planet.o5m"
	defaultOutputDir   = "world"
	defaultLogDir      = "~/.local/share/osmworld/logs"
	defaultJavaHeap    = "12000m"
	defaultSplitterJar = "splitter.jar"
	defaultOSM2HydroIn = "osm2tiff.ini"
	defaultMaxCPU      = 3
	defaultOverlap     = 3000
	defaultHashMemory  = 1000
	defaultFillPollMS  = 200
	defaultDrainPollMS = 500
	defaultPigzThreads = 6
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultRetention   = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OSMFile:        defaultOSMFile,
			OSMCutDir:      ".",
			OutputDir:      defaultOutputDir,
			FinalOutputDir: ".",
			TmpDir:         ".",
			LogDir:         defaultLogDir,
		},
		Tools: Tools{
			OSMConvert:      []string{"osmconvert"},
			Java:            "java",
			JavaHeap:        defaultJavaHeap,
			SplitterJar:     defaultSplitterJar,
			OSM2Hydro:       []string{"python", "osm2hydro_metres.py"},
			OSM2HydroConfig: defaultOSM2HydroIn,
			GDALMerge:       []string{"gdal_merge.py"},
			Pigz:            "pigz",
			PigzThreads:     defaultPigzThreads,
			Cleanup:         []string{"rm", "-rf"},
		},
		Pipeline: Pipeline{
			MaxCPU:      defaultMaxCPU,
			Boundaries:  DefaultBoundaries(),
			Extract:     true,
			Overlap:     defaultOverlap,
			HashMemory:  defaultHashMemory,
			FillPollMS:  defaultFillPollMS,
			DrainPollMS: defaultDrainPollMS,
		},
		Merge: Merge{
			Patterns:        DefaultMergePatterns(),
			NoData:          0,
			CreationOptions: []string{"COMPRESS=LZW", "BIGTIFF=YES", "TILED=TRUE"},
			Compress:        true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetention,
		},
	}
}

// DefaultBoundaries lists the seven world regions area_0.poly … area_6.poly.
func DefaultBoundaries() []string {
	return []string{
		"area_0.poly", "area_1.poly", "area_2.poly", "area_3.poly",
		"area_4.poly", "area_5.poly", "area_6.poly",
	}
}

// DefaultMergePatterns lists the raster products merged into world files.
func DefaultMergePatterns() []string {
	return []string{
		"lu_buildings.tif",
		"roads_den.tif",
		"lu_paved.tif",
		"lu_pavedpol.tif",
		"lu_water.tif",
		"lu_unpaved.tif",
		"lu_roads.tif",
	}
}
