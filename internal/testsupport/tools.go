package testsupport

import (
	"os"
	"strconv"
	"strings"
	"testing"
)

// CallLogEnv names the variable stub tools append their invocations to.
const CallLogEnv = "OSMWORLD_STUB_CALLS"

// osmconvertStub creates the -o= output.
const osmconvertStub = `#!/bin/sh
echo "osmconvert $*" >> "$OSMWORLD_STUB_CALLS"
for a in "$@"; do
  case "$a" in
    -o=*) out="${a#-o=}" ;;
  esac
done
mkdir -p "$(dirname "$out")"
: > "$out"
`

// splitterStub writes a two-tile areas.list starting at --mapid, or touches
// the tiles listed in --split-file.
const splitterStub = `#!/bin/sh
echo "splitter $*" >> "$OSMWORLD_STUB_CALLS"
out=""; mapid=1; split=""
for a in "$@"; do
  case "$a" in
    --output-dir=*) out="${a#--output-dir=}" ;;
    --mapid=*) mapid="${a#--mapid=}" ;;
    --split-file=*) split="${a#--split-file=}" ;;
  esac
done
mkdir -p "$out"
if [ -z "$split" ]; then
  n1=$(printf '%08d' "$mapid")
  n2=$(printf '%08d' $((mapid + 1)))
  {
    echo "# List of areas"
    echo "#"
    echo "$n1: 0,0 to 2048,2048"
    echo "#       : 0.000000,0.000000 to 43.945312,43.945312"
    echo "$n2: 2048,0 to 4096,2048"
  } > "$out/areas.list"
  : > "$out/$n1.osm.pbf"
  : > "$out/$n2.osm.pbf"
else
  grep -v '#' "$split" | cut -d: -f1 | while read -r id; do
    [ -n "$id" ] && : > "$out/$id.osm.pbf"
  done
fi
`

// osm2hydroStub fills the -o directory with a marker, one raster, and shapes.
const osm2hydroStub = `#!/bin/sh
echo "osm2hydro $*" >> "$OSMWORLD_STUB_CALLS"
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift ;;
  esac
  shift
done
mkdir -p "$out/osmshapes"
: > "$out/osmshapes/water.shp"
: > "$out/lu_water.tif"
: > "$out/OMS2Hydro.log"
`

// gdalMergeStub copies the list file into -o so tests can inspect the inputs.
const gdalMergeStub = `#!/bin/sh
echo "gdal_merge $*" >> "$OSMWORLD_STUB_CALLS"
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift ;;
    --optfile) list="$2"; shift ;;
  esac
  shift
done
cat "$list" > "$out"
`

// pigzStub replaces its last argument with a .gz sibling.
const pigzStub = `#!/bin/sh
echo "pigz $*" >> "$OSMWORLD_STUB_CALLS"
for a in "$@"; do last="$a"; done
mv "$last" "$last.gz"
`

// FailingStub is a tool that exits with the given status.
func FailingStub(t testing.TB, path string, status int) {
	t.Helper()
	body := "#!/bin/sh\necho \"failing $*\" >> \"$OSMWORLD_STUB_CALLS\"\nexit " + strconv.Itoa(status) + "\n"
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write failing stub: %v", err)
	}
}

// Calls returns the stub invocations recorded so far, one per line.
func Calls(t testing.TB) []string {
	t.Helper()
	data, err := os.ReadFile(os.Getenv(CallLogEnv))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read call log: %v", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// CountCalls returns how many recorded invocations start with tool.
func CountCalls(t testing.TB, tool string) int {
	t.Helper()
	n := 0
	for _, line := range Calls(t) {
		if strings.HasPrefix(line, tool+" ") {
			n++
		}
	}
	return n
}

// ResetCalls truncates the call log.
func ResetCalls(t testing.TB) {
	t.Helper()
	if err := os.WriteFile(os.Getenv(CallLogEnv), nil, 0o644); err != nil {
		t.Fatalf("reset call log: %v", err)
	}
}
