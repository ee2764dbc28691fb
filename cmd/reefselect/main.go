// Command reefselect runs a single decision-year ranking across a scenario
// parameter table, implementing spec.md §6's select(domain, params, cover,
// area, t) -> rank tensor (M x N_loc x 3) envelope, with column meanings
// (site_id, seed_rank, shade_rank).
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/reeflab/coralmcda/internal/climate"
	"github.com/reeflab/coralmcda/internal/config"
	"github.com/reeflab/coralmcda/internal/domain"
	"github.com/reeflab/coralmcda/internal/load"
	"github.com/reeflab/coralmcda/internal/mcda"
	"github.com/reeflab/coralmcda/internal/rngseed"
	"github.com/reeflab/coralmcda/internal/scenario"
	"github.com/reeflab/coralmcda/internal/selection"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	sitesPath := flag.String("sites", "in/sites.csv", "Filepath to the site table CSV")
	connPath := flag.String("connectivity", "in/connectivity.csv", "Filepath to the connectivity matrix CSV")
	speciesPath := flag.String("species", "in/species.csv", "Filepath to the species parameter table CSV")
	dhwPath := flag.String("dhw", "in/dhw.csv", "Filepath to the DHW forcing CSV")
	wavePath := flag.String("wave", "in/wave.csv", "Filepath to the wave forcing CSV")
	coverPath := flag.String("cover", "in/cover.csv", "Filepath to the cover snapshot CSV (NBins x N_loc, no header)")
	areaPath := flag.String("area", "", "Optional filepath to a per-location capacity override CSV (single row, N_loc columns)")
	paramsPath := flag.String("params", "in/scenarios.json", "Filepath to the scenario parameter table (JSON array)")
	outPath := flag.String("out", "out/ranks.csv", "Filepath for the rank tensor CSV output")
	horizon := flag.Int("horizon", 20, "Simulation horizon in years, used only to size the forcing arrays")
	nInt := flag.Int("n-int", 5, "Number of intervention sites selected per decision")
	year := flag.Int("t", 0, "Decision year to rank, 0-based")
	progress := flag.Bool("progress", true, "Show console progress bars while loading inputs")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	start := time.Now()
	slog.Info("reefselect: loading domain inputs", "sites", *sitesPath)

	src := &load.CSVSource{
		SitesPath:        *sitesPath,
		ConnectivityPath: *connPath,
		SpeciesPath:      *speciesPath,
		DHWPath:          *dhwPath,
		WavePath:         *wavePath,
		ShowProgress:     *progress,
	}

	dom, forcing, err := buildDomain(src, *horizon, *nInt, cfg.Reps)
	if err != nil {
		slog.Error("failed to build domain", "err", err)
		os.Exit(1)
	}
	if err := applyAreaOverride(dom, *areaPath); err != nil {
		slog.Error("failed to apply area override", "err", err)
		os.Exit(1)
	}
	slog.Info("reefselect: domain ready", "locations", dom.N(), "elapsed", humanize.Time(start))

	cover, err := loadCover(*coverPath, dom.N())
	if err != nil {
		slog.Error("failed to load cover snapshot", "err", err)
		os.Exit(1)
	}

	params, err := loadScenarioTable(*paramsPath)
	if err != nil {
		slog.Error("failed to load scenario table", "err", err)
		os.Exit(1)
	}
	slog.Info("reefselect: scenario table loaded", "scenarios", len(params))

	if *year < 0 || *year >= dom.Horizon {
		slog.Error("decision year out of range", "t", *year, "horizon", dom.Horizon)
		os.Exit(1)
	}
	dhw := make([]float64, dom.N())
	wave := make([]float64, dom.N())
	forcing.DHWStep(*year, 0, dhw)
	forcing.WaveStep(*year, 0, wave)

	if err := os.MkdirAll(dirOf(*outPath), 0o755); err != nil {
		slog.Error("failed to create output directory", "err", err)
		os.Exit(1)
	}

	if err := writeRankTensor(*outPath, dom, params, cover, dhw, wave, *year); err != nil {
		slog.Error("failed to write rank tensor", "err", err)
		os.Exit(1)
	}

	slog.Info("reefselect: done", "scenarios", len(params), "locations", dom.N(), "elapsed", humanize.Time(start))
}

func buildDomain(src *load.CSVSource, horizon, nInt, reps int) (*domain.Domain, *climate.Forcing, error) {
	sites, err := src.LoadSites()
	if err != nil {
		return nil, nil, err
	}
	n := len(sites)

	conn, err := src.LoadConnectivity(n)
	if err != nil {
		return nil, nil, err
	}

	species, err := src.LoadSpecies()
	if err != nil {
		return nil, nil, err
	}

	dom, err := domain.New(sites, conn, species, horizon, nInt, domain.Timing{})
	if err != nil {
		return nil, nil, err
	}

	dhw, wave, err := src.LoadClimate(horizon, n, reps)
	if err != nil {
		return nil, nil, err
	}
	forcing, err := climate.New(horizon, n, reps, dhw, wave)
	if err != nil {
		return nil, nil, err
	}

	return dom, forcing, nil
}

// applyAreaOverride replaces every location's carrying-capacity (K), the
// denominator the seed/shade decision criteria divide cover by, with the
// single row of values at path. An empty path leaves dom.Locations
// untouched, per spec.md §6's area parameter being optional at the CLI
// layer.
func applyAreaOverride(dom *domain.Domain, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) != 1 || len(rows[0]) != dom.N() {
		return fmt.Errorf("area override %s must be a single row of %d columns", path, dom.N())
	}
	for i, cell := range rows[0] {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return fmt.Errorf("area override col %d: %w", i, err)
		}
		dom.Locations[i].K = v
	}
	return nil
}

func loadCover(path string, n int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) != domain.NBins {
		return nil, fmt.Errorf("cover snapshot %s has %d rows, want %d", path, len(rows), domain.NBins)
	}
	out := make([]float64, domain.NBins*n)
	for s, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("cover snapshot %s row %d has %d columns, want %d", path, s, len(row), n)
		}
		for l, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("cover snapshot row %d col %d: %w", s, l, err)
			}
			out[s*n+l] = v
		}
	}
	return out, nil
}

func loadScenarioTable(path string) ([]scenario.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var params []scenario.Params
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, err
	}
	return params, nil
}

// writeRankTensor runs one Selector call per scenario row for both the
// seed and shade Intent and writes the (scenario_index, site_id, seed_rank,
// shade_rank) rows flattening spec.md §6's M x N_loc x 3 tensor.
func writeRankTensor(path string, dom *domain.Domain, params []scenario.Params, cover, dhw, wave []float64, year int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"scenario_index", "site_id", "seed_rank", "shade_rank"}); err != nil {
		return err
	}

	for m, p := range params {
		log := selection.NewRankLog(year+1, dom.N())
		sel := &selection.Selector{Domain: dom, Rules: defaultRules()}
		if p.MCDAMethod == scenario.MCDAUnguided {
			sel.Rng = rand.New(rand.NewSource(rngseed.Derive(p)))
		}

		if _, err := sel.Select(p, selection.SeedIntent, year, cover, dhw, wave, nil, log); err != nil {
			slog.Warn("reefselect: scenario-fatal selection error, skipping scenario", "scenario_index", m, "intent", "seed", "err", err)
			continue
		}
		if _, err := sel.Select(p, selection.ShadeIntent, year, cover, dhw, wave, nil, log); err != nil {
			slog.Warn("reefselect: scenario-fatal selection error, skipping scenario", "scenario_index", m, "intent", "shade", "err", err)
			continue
		}

		for l, loc := range dom.Locations {
			row := []string{
				strconv.Itoa(m),
				loc.SiteID,
				strconv.Itoa(log.SeedRankAt(year, l)),
				strconv.Itoa(log.ShadeRankAt(year, l)),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// defaultRules returns no risk-filter rules; a deployment wires its own
// tolerance rules here once it has site-level risk data to filter on.
func defaultRules() []mcda.ToleranceRule { return nil }

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
