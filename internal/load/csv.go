package load

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/reeflab/coralmcda/internal/domain"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/cheggaaa/pb.v1"
)

// CSVSource is the concrete CSV-backed DomainSource. Each field is a
// filepath; an empty path leaves the corresponding Load call
// unavailable (it returns an error only if called).
type CSVSource struct {
	SitesPath        string
	ConnectivityPath string
	SpeciesPath      string
	DHWPath          string
	WavePath         string
	InitialCoverPath string

	// ShowProgress enables a cheggaaa/pb.v1 console progress bar while
	// reading each file's rows.
	ShowProgress bool
}

// LoadSites reads site_id, unique_id, area, depth_med, k, lon, lat
// columns (header row required, column order fixed).
func (c *CSVSource) LoadSites() ([]domain.Location, error) {
	rows, err := readCSV(c.SitesPath)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("load sites: %s has no data rows", c.SitesPath)
	}

	bar := c.startBar(len(rows) - 1)
	locs := make([]domain.Location, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 7 {
			return nil, fmt.Errorf("load sites: row %d has %d columns, want 7", i, len(row))
		}
		area, err := parseFloat(row[2])
		if err != nil {
			return nil, fmt.Errorf("load sites: row %d area: %w", i, err)
		}
		depth, err := parseFloat(row[3])
		if err != nil {
			return nil, fmt.Errorf("load sites: row %d depth_med: %w", i, err)
		}
		k, err := parseFloat(row[4])
		if err != nil {
			return nil, fmt.Errorf("load sites: row %d k: %w", i, err)
		}
		lon, err := parseFloat(row[5])
		if err != nil {
			return nil, fmt.Errorf("load sites: row %d lon: %w", i, err)
		}
		lat, err := parseFloat(row[6])
		if err != nil {
			return nil, fmt.Errorf("load sites: row %d lat: %w", i, err)
		}
		locs = append(locs, domain.Location{
			SiteID:   row[0],
			UniqueID: row[1],
			Area:     area,
			DepthMed: depth,
			K:        k,
			Centroid: domain.LonLat{Lon: lon, Lat: lat},
		})
		incr(bar)
	}
	c.finishBar(bar, "sites loaded")
	return locs, nil
}

// LoadConnectivity reads an n x n matrix with no header row.
func (c *CSVSource) LoadConnectivity(n int) (*mat.Dense, error) {
	rows, err := readCSV(c.ConnectivityPath)
	if err != nil {
		return nil, err
	}
	if len(rows) != n {
		return nil, fmt.Errorf("load connectivity: %s has %d rows, want %d", c.ConnectivityPath, len(rows), n)
	}

	bar := c.startBar(n * n)
	values := make([]float64, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("load connectivity: row %d has %d columns, want %d", i, len(row), n)
		}
		for j, cell := range row {
			v, err := parseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("load connectivity: row %d col %d: %w", i, j, err)
			}
			values[i*n+j] = v
			incr(bar)
		}
	}
	c.finishBar(bar, "connectivity matrix loaded")
	return mat.NewDense(n, n, values), nil
}

// speciesColumns is the fixed header order LoadSpecies expects.
var speciesColumns = []string{
	"taxon", "size_class", "growth_rate", "mortality_rate", "bleach_resistance",
	"colony_area_m2", "fecundity_per_m2", "wave_mort_90", "natural_adaptation",
	"assisted_adaptation", "lp_dhw_coeff", "lp_prm2", "gompertz_p1", "gompertz_p2",
}

// LoadSpecies reads the 36-row coral parameter table, header columns in
// speciesColumns order.
func (c *CSVSource) LoadSpecies() ([]domain.SpeciesBin, error) {
	rows, err := readCSV(c.SpeciesPath)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("load species: %s has no data rows", c.SpeciesPath)
	}
	if len(rows[0]) != len(speciesColumns) {
		return nil, fmt.Errorf("load species: header has %d columns, want %d", len(rows[0]), len(speciesColumns))
	}

	bar := c.startBar(len(rows) - 1)
	bins := make([]domain.SpeciesBin, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) != len(speciesColumns) {
			return nil, fmt.Errorf("load species: row %d has %d columns, want %d", i, len(row), len(speciesColumns))
		}
		sizeClass, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("load species: row %d size_class: %w", i, err)
		}
		vals := make([]float64, 12)
		for j, cell := range row[2:] {
			v, err := parseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("load species: row %d col %d: %w", i, j+2, err)
			}
			vals[j] = v
		}
		bins = append(bins, domain.SpeciesBin{
			Taxon:              row[0],
			SizeClass:          sizeClass,
			GrowthRate:         vals[0],
			MortalityRate:      vals[1],
			BleachResistance:   vals[2],
			ColonyAreaM2:       vals[3],
			FecundityPerM2:     vals[4],
			WaveMort90:         vals[5],
			NaturalAdaptation:  vals[6],
			AssistedAdaptation: vals[7],
			LPDHWCoeff:         vals[8],
			LPDPrm2:            vals[9],
			GompertzP1:         vals[10],
			GompertzP2:         vals[11],
		})
		incr(bar)
	}
	c.finishBar(bar, "species table loaded")
	return bins, nil
}

// LoadClimate reads two flat CSV files, one row per (t, location) pair
// (T*N rows), one column per replicate, for DHW and wave respectively.
func (c *CSVSource) LoadClimate(t, n, r int) ([]float64, []float64, error) {
	dhw, err := c.loadFlatGrid(c.DHWPath, t*n, r)
	if err != nil {
		return nil, nil, fmt.Errorf("load dhw: %w", err)
	}
	wave, err := c.loadFlatGrid(c.WavePath, t*n, r)
	if err != nil {
		return nil, nil, fmt.Errorf("load wave: %w", err)
	}
	return dhw, wave, nil
}

func (c *CSVSource) loadFlatGrid(path string, rows, cols int) ([]float64, error) {
	data, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(data) != rows {
		return nil, fmt.Errorf("%s has %d rows, want %d", path, len(data), rows)
	}
	bar := c.startBar(rows * cols)
	out := make([]float64, rows*cols)
	for i, row := range data {
		if len(row) != cols {
			return nil, fmt.Errorf("%s row %d has %d columns, want %d", path, i, len(row), cols)
		}
		for j, cell := range row {
			v, err := parseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("%s row %d col %d: %w", path, i, j, err)
			}
			out[i*cols+j] = v
			incr(bar)
		}
	}
	c.finishBar(bar, path+" loaded")
	return out, nil
}

// LoadInitialCover reads a 36-row x n-column CSV, no header.
func (c *CSVSource) LoadInitialCover(n int) ([]float64, error) {
	rows, err := readCSV(c.InitialCoverPath)
	if err != nil {
		return nil, err
	}
	if len(rows) != domain.NBins {
		return nil, fmt.Errorf("load initial cover: %s has %d rows, want %d", c.InitialCoverPath, len(rows), domain.NBins)
	}
	bar := c.startBar(domain.NBins * n)
	out := make([]float64, domain.NBins*n)
	for s, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("load initial cover: row %d has %d columns, want %d", s, len(row), n)
		}
		for l, cell := range row {
			v, err := parseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("load initial cover: row %d col %d: %w", s, l, err)
			}
			out[s*n+l] = v
			incr(bar)
		}
	}
	c.finishBar(bar, "initial cover loaded")
	return out, nil
}

func (c *CSVSource) startBar(total int) *pb.ProgressBar {
	if !c.ShowProgress {
		return nil
	}
	bar := pb.StartNew(total)
	bar.ShowTimeLeft = false
	return bar
}

func (c *CSVSource) finishBar(bar *pb.ProgressBar, msg string) {
	if bar != nil {
		bar.FinishPrint("\t" + msg)
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// incr increments bar if progress reporting is enabled; pb.v1's
// ProgressBar has no nil-safe Increment, so every call site above goes
// through this guard instead of calling bar.Increment() directly.
func incr(bar *pb.ProgressBar) {
	if bar != nil {
		bar.Increment()
	}
}
