package tilegrid

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// Area is a raw tile bound in splitter map units.
type Area struct {
	ID int
	Y1 int64
	X1 int64
	Y2 int64
	X2 int64
}

// Write renders areas in the splitter index format, including the decimal
// degree comment line splitter emits after every record.
func Write(w io.Writer, areas []Area, generated time.Time) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# List of areas")
	fmt.Fprintf(bw, "# Generated %s\n", generated.UTC().Format(time.UnixDate))
	fmt.Fprintln(bw, "#")
	for _, area := range areas {
		fmt.Fprintf(bw, "%08d: %d,%d to %d,%d\n", area.ID, area.Y1, area.X1, area.Y2, area.X2)
		fmt.Fprintf(bw, "#       : %s,%s to %s,%s\n",
			degrees(area.Y1), degrees(area.X1), degrees(area.Y2), degrees(area.X2))
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

func degrees(units int64) string {
	return fmt.Sprintf("%.6f", float64(units)*Scale)
}
