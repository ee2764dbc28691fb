package load

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadSitesParsesRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sites.csv",
		"site_id,unique_id,area,depth_med,k,lon,lat\n"+
			"a,a1,100,5,0.5,10.1,-20.2\n"+
			"b,b1,200,6,0.6,10.2,-20.3\n")

	src := &CSVSource{SitesPath: path}
	locs, err := src.LoadSites()
	if err != nil {
		t.Fatalf("LoadSites: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locs))
	}
	if locs[0].SiteID != "a" || locs[0].K != 0.5 || locs[0].Centroid.Lat != -20.2 {
		t.Fatalf("unexpected first location: %+v", locs[0])
	}
}

func TestLoadConnectivitySquareMatrix(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "conn.csv", "0,0.1\n0.2,0\n")

	src := &CSVSource{ConnectivityPath: path}
	m, err := src.LoadConnectivity(2)
	if err != nil {
		t.Fatalf("LoadConnectivity: %v", err)
	}
	if m.At(0, 1) != 0.1 || m.At(1, 0) != 0.2 {
		t.Fatalf("unexpected matrix values: %v", m)
	}
}

func TestLoadConnectivityRejectsWrongShape(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "conn.csv", "0,0.1,0.2\n0.2,0,0.1\n")

	src := &CSVSource{ConnectivityPath: path}
	if _, err := src.LoadConnectivity(2); err == nil {
		t.Fatal("expected an error for a non-square shape mismatch")
	}
}

func TestLoadInitialCoverRejectsWrongRowCount(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cover.csv", "0.1,0.2\n")

	src := &CSVSource{InitialCoverPath: path}
	if _, err := src.LoadInitialCover(2); err == nil {
		t.Fatal("expected an error when row count does not match NBins")
	}
}
