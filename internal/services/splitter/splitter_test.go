package splitter

import (
	"slices"
	"testing"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{Java: "java", Heap: "12000m", Jar: "splitter.jar", Overlap: 3000})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestFreshPartitionJob(t *testing.T) {
	job := newClient(t).PartitionJob(Request{
		Region:    "area_1.poly",
		Source:    "./area_1.poly.pbf",
		OutputDir: "world/area_1.poly",
		Boundary:  "area_1.poly",
		MapID:     42,
	}, "")

	want := []string{
		"-Xmx12000m", "-jar", "splitter.jar", "--overlap=3000",
		"--output-dir=world/area_1.poly", "--description=OSM World splitter results",
		"--keep-complete=true", "--mapid=42", "--output=pbf",
		"--polygon-file=area_1.poly", "--write-kml=areas.kml", "./area_1.poly.pbf",
	}
	if job.Program != "java" || !slices.Equal(job.Args, want) {
		t.Fatalf("unexpected command %s %v", job.Program, job.Args)
	}
	if job.Key != "world/area_1.poly/areas.list" {
		t.Fatalf("unexpected key %q", job.Key)
	}
	if job.Stage != Stage || job.Name != "partition area_1.poly" {
		t.Fatalf("unexpected job metadata %+v", job)
	}
}

func TestReplayPartitionJob(t *testing.T) {
	job := newClient(t).PartitionJob(Request{
		Region:    "area_1.poly",
		Source:    "area_1.poly.pbf",
		OutputDir: "out",
		Boundary:  "area_1.poly",
		MapID:     1,
		SplitFile: "out/areas.list",
	}, "out/00000001.osm.pbf")

	if !slices.Contains(job.Args, "--split-file=out/areas.list") {
		t.Fatalf("missing split-file arg: %v", job.Args)
	}
	for _, arg := range job.Args {
		if arg == "--overlap=3000" {
			t.Fatalf("replay must not pass --overlap: %v", job.Args)
		}
	}
	if !slices.Contains(job.Args, "--mapid=1") {
		t.Fatalf("replay keeps --mapid: %v", job.Args)
	}
	if job.Key != "out/00000001.osm.pbf" || job.Name != "repartition area_1.poly" {
		t.Fatalf("unexpected job metadata %+v", job)
	}
}

func TestNewValidates(t *testing.T) {
	cases := []Options{
		{Jar: "s.jar", Overlap: 1},
		{Java: "java", Overlap: 1},
		{Java: "java", Jar: "s.jar"},
	}
	for _, opts := range cases {
		if _, err := New(opts); err == nil {
			t.Fatalf("expected error for %+v", opts)
		}
	}
}
