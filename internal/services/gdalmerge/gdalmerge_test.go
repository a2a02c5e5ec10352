package gdalmerge

import (
	"slices"
	"testing"
)

func TestMergeJob(t *testing.T) {
	client, err := New(Options{
		Argv:            []string{"gdal_merge.py"},
		CreationOptions: []string{"COMPRESS=LZW", "BIGTIFF=YES", "TILED=TRUE"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	job := client.MergeJob("lu_water.tif", "/final/lu_water.tif", "/final/lu_water.tif.flist.txt")
	want := []string{
		"-co", "COMPRESS=LZW", "-co", "BIGTIFF=YES", "-co", "TILED=TRUE",
		"-n", "0", "-o", "/final/lu_water.tif", "--optfile", "/final/lu_water.tif.flist.txt",
	}
	if job.Program != "gdal_merge.py" || !slices.Equal(job.Args, want) {
		t.Fatalf("unexpected command %s %v", job.Program, job.Args)
	}
	if job.Key != "/final/lu_water.tif" || job.Unit != "lu_water.tif" {
		t.Fatalf("unexpected metadata %+v", job)
	}
}

func TestMergeJobWithoutCreationOptions(t *testing.T) {
	client, err := New(Options{Argv: []string{"python3", "gdal_merge.py"}, NoData: -9999})
	if err != nil {
		t.Fatal(err)
	}
	job := client.MergeJob("p", "o", "l")
	want := []string{"gdal_merge.py", "-n", "-9999", "-o", "o", "--optfile", "l"}
	if !slices.Equal(job.Args, want) {
		t.Fatalf("got %v want %v", job.Args, want)
	}
}

func TestNewRequiresCommand(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error")
	}
}
