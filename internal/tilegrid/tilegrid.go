package tilegrid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	// MapUnitsPerCircle is the splitter grid resolution for 360 degrees.
	MapUnitsPerCircle = 1 << 24
	// Scale converts splitter map units to decimal degrees.
	Scale = 360.0 / MapUnitsPerCircle
	// OverlapDegrees is the full overlap margin applied around each tile.
	OverlapDegrees = 0.008333333333
	// Correction is subtracted from the south/west edge and added to the
	// north/east edge of every decoded tile.
	Correction = OverlapDegrees * 0.5

	precision = 1e6
)

// IndexFileName is the name splitter gives its tile index.
const IndexFileName = "areas.list"

// Tile is one leaf partition listed in an index file.
type Tile struct {
	ID    int
	Name  string
	South float64
	West  float64
	North float64
	East  float64
}

// SourceFile returns the file name splitter writes the tile data to.
func (t Tile) SourceFile() string {
	return t.Name + ".osm.pbf"
}

// Extent renders the padded bounding box as [west,south,east,north].
func (t Tile) Extent() string {
	return fmt.Sprintf("[%s,%s,%s,%s]",
		formatDegrees(t.West), formatDegrees(t.South),
		formatDegrees(t.East), formatDegrees(t.North))
}

// ReadFile decodes the index file at path. A missing file yields an error
// matching fs.ErrNotExist.
func ReadFile(path string) ([]Tile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tiles, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return tiles, nil
}

// Parse decodes index records from r in file order. Lines holding a comment
// marker and lines that do not split into exactly five tokens are skipped.
func Parse(r io.Reader) ([]Tile, error) {
	var tiles []Tile
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "#") {
			continue
		}
		tile, ok := parseLine(line)
		if !ok {
			continue
		}
		tiles = append(tiles, tile)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tiles, nil
}

func parseLine(line string) (Tile, bool) {
	tokens := splitAll(strings.TrimSpace(line), ":", ",", " to ")
	if len(tokens) != 5 {
		return Tile{}, false
	}
	name := strings.TrimSpace(tokens[0])
	id, err := strconv.Atoi(name)
	if err != nil {
		return Tile{}, false
	}
	var raw [4]int64
	for i, token := range tokens[1:] {
		value, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
		if err != nil {
			return Tile{}, false
		}
		raw[i] = value
	}
	return Tile{
		ID:    id,
		Name:  name,
		South: Decode(raw[0], -Correction),
		West:  Decode(raw[1], -Correction),
		North: Decode(raw[2], Correction),
		East:  Decode(raw[3], Correction),
	}, true
}

// Decode converts a raw grid coordinate to degrees, applies the correction
// and rounds to six decimal places.
func Decode(units int64, correction float64) float64 {
	return round6(float64(units)*Scale + correction)
}

// NextID returns the first identifier that is not used by tiles. An empty
// index starts numbering at 1.
func NextID(tiles []Tile) int {
	next := 1
	for _, tile := range tiles {
		if tile.ID >= next {
			next = tile.ID + 1
		}
	}
	return next
}

func splitAll(s string, seps ...string) []string {
	parts := []string{s}
	for _, sep := range seps {
		next := make([]string, 0, len(parts))
		for _, part := range parts {
			next = append(next, strings.Split(part, sep)...)
		}
		parts = next
	}
	return parts
}

func round6(v float64) float64 {
	return math.Round(v*precision) / precision
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
