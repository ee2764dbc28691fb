// Command reefsim runs a scenario parameter table against a Domain and
// writes results to a sqlite result store, implementing spec.md §6's
// run(domain, params, reps) -> Domain-with-invocation-timestamp envelope.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/reeflab/coralmcda/internal/batch"
	"github.com/reeflab/coralmcda/internal/climate"
	"github.com/reeflab/coralmcda/internal/config"
	"github.com/reeflab/coralmcda/internal/domain"
	"github.com/reeflab/coralmcda/internal/load"
	"github.com/reeflab/coralmcda/internal/mcda"
	"github.com/reeflab/coralmcda/internal/scenario"
	"github.com/reeflab/coralmcda/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	sitesPath := flag.String("sites", "in/sites.csv", "Filepath to the site table CSV")
	connPath := flag.String("connectivity", "in/connectivity.csv", "Filepath to the connectivity matrix CSV")
	speciesPath := flag.String("species", "in/species.csv", "Filepath to the species parameter table CSV")
	dhwPath := flag.String("dhw", "in/dhw.csv", "Filepath to the DHW forcing CSV")
	wavePath := flag.String("wave", "in/wave.csv", "Filepath to the wave forcing CSV")
	coverPath := flag.String("initial-cover", "in/initial_cover.csv", "Filepath to the initial coral cover CSV")
	paramsPath := flag.String("params", "in/scenarios.json", "Filepath to the scenario parameter table (JSON array)")
	outPath := flag.String("out", "out/results.sqlite", "Filepath for the sqlite result store")
	horizon := flag.Int("horizon", 20, "Simulation horizon in years")
	nInt := flag.Int("n-int", 5, "Number of intervention sites selected per decision")
	progress := flag.Bool("progress", true, "Show console progress bars")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	start := time.Now()
	slog.Info("reefsim: loading domain inputs", "sites", *sitesPath)

	src := &load.CSVSource{
		SitesPath:        *sitesPath,
		ConnectivityPath: *connPath,
		SpeciesPath:      *speciesPath,
		DHWPath:          *dhwPath,
		WavePath:         *wavePath,
		InitialCoverPath: *coverPath,
		ShowProgress:     *progress,
	}

	dom, forcing, initialCover, err := buildDomain(src, *horizon, *nInt, cfg.Reps)
	if err != nil {
		slog.Error("failed to build domain", "err", err)
		os.Exit(1)
	}
	slog.Info("reefsim: domain ready", "locations", dom.N(), "horizon", dom.Horizon, "elapsed", humanize.Time(start))

	params, err := loadScenarioTable(*paramsPath)
	if err != nil {
		slog.Error("failed to load scenario table", "err", err)
		os.Exit(1)
	}
	slog.Info("reefsim: scenario table loaded", "scenarios", len(params))

	if err := os.MkdirAll(dirOf(*outPath), 0o755); err != nil {
		slog.Error("failed to create output directory", "err", err)
		os.Exit(1)
	}

	run := store.NewRunRecord(start.UTC().Format(time.RFC3339), len(params), cfg.Reps, cfg.Threshold)
	resultStore, err := store.Open(*outPath, run)
	if err != nil {
		slog.Error("failed to open result store", "err", err)
		os.Exit(1)
	}
	defer resultStore.Close()

	driver := batch.New(dom, forcing, defaultRules(), initialCover)
	driver.ShowProgress = *progress

	slog.Info("reefsim: running scenario batch", "threshold", driver.ParallelThreshold)
	if err := driver.Run(params, resultStore); err != nil {
		slog.Error("batch run failed", "err", err)
		os.Exit(1)
	}

	run.FinishedAtUTC = time.Now().UTC().Format(time.RFC3339)
	if err := resultStore.Finalize(run); err != nil {
		slog.Error("failed to finalize run record", "err", err)
		os.Exit(1)
	}

	slog.Info("reefsim: done",
		"run_id", run.ID,
		"scenarios", len(params),
		"elapsed", humanize.Time(start),
		"bytes_out", humanize.Bytes(uint64(estimateOutputBytes(dom, forcing, len(params)))))
}

func buildDomain(src *load.CSVSource, horizon, nInt, reps int) (*domain.Domain, *climate.Forcing, []float64, error) {
	sites, err := src.LoadSites()
	if err != nil {
		return nil, nil, nil, err
	}
	n := len(sites)

	conn, err := src.LoadConnectivity(n)
	if err != nil {
		return nil, nil, nil, err
	}

	species, err := src.LoadSpecies()
	if err != nil {
		return nil, nil, nil, err
	}

	dom, err := domain.New(sites, conn, species, horizon, nInt, domain.Timing{})
	if err != nil {
		return nil, nil, nil, err
	}

	dhw, wave, err := src.LoadClimate(horizon, n, reps)
	if err != nil {
		return nil, nil, nil, err
	}
	forcing, err := climate.New(horizon, n, reps, dhw, wave)
	if err != nil {
		return nil, nil, nil, err
	}

	initialCover, err := src.LoadInitialCover(n)
	if err != nil {
		return nil, nil, nil, err
	}

	return dom, forcing, initialCover, nil
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

// defaultRules returns no risk-filter rules; a deployment wires its own
// tolerance rules here once it has site-level risk data to filter on.
func defaultRules() []mcda.ToleranceRule {
	return nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func estimateOutputBytes(dom *domain.Domain, forcing *climate.Forcing, scenarios int) int {
	n := dom.N()
	t := dom.Horizon
	r := forcing.R
	perScenario := t*domain.NBins*n*r + t*2*n*r + 2*t*n*r + t*n*2
	return perScenario * scenarios * 8
}
