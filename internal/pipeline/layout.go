package pipeline

import (
	"path/filepath"

	"osmworld/internal/config"
	"osmworld/internal/services/osm2hydro"
	"osmworld/internal/services/osmconvert"
	"osmworld/internal/services/splitter"
	"osmworld/internal/tilegrid"
)

// Region is one boundary polygon and the paths derived from it.
type Region struct {
	// Boundary is the polygon file as configured; it is handed to the tools
	// unchanged.
	Boundary string
	// Name is the boundary's base name, used to derive paths.
	Name   string
	CutOut string
	Dir    string
	Index  string
}

// TileSource returns the partitioner output for tile.
func (r Region) TileSource(tile tilegrid.Tile) string {
	return filepath.Join(r.Dir, tile.SourceFile())
}

// TileDir returns the conversion output directory for tile.
func (r Region) TileDir(tile tilegrid.Tile) string {
	return filepath.Join(r.Dir, tile.Name)
}

// TileMarker returns the conversion marker for tile.
func (r Region) TileMarker(tile tilegrid.Tile) string {
	return osm2hydro.MarkerPath(r.TileDir(tile))
}

// Layout maps configuration onto the on-disk tree.
type Layout struct {
	CutDir    string
	OutputDir string
	FinalDir  string
	regions   []Region
}

// NewLayout derives the layout for cfg.
func NewLayout(cfg *config.Config) Layout {
	l := Layout{
		CutDir:    cfg.Paths.OSMCutDir,
		OutputDir: cfg.Paths.OutputDir,
		FinalDir:  cfg.Paths.FinalOutputDir,
	}
	for _, boundary := range cfg.Pipeline.Boundaries {
		name := filepath.Base(boundary)
		dir := filepath.Join(l.OutputDir, name)
		l.regions = append(l.regions, Region{
			Boundary: boundary,
			Name:     name,
			CutOut:   osmconvert.CutOutPath(l.CutDir, name),
			Dir:      dir,
			Index:    splitter.IndexPath(dir),
		})
	}
	return l
}

// Regions returns the regions in configuration order.
func (l Layout) Regions() []Region {
	return append([]Region(nil), l.regions...)
}

// RegionDirs returns every partition directory in configuration order.
func (l Layout) RegionDirs() []string {
	dirs := make([]string, 0, len(l.regions))
	for _, r := range l.regions {
		dirs = append(dirs, r.Dir)
	}
	return dirs
}
