// Package batch implements the outer, parallel-over-scenarios layer
// (spec.md §4.H): given a parameter table of M scenarios and a shared
// Domain and forcing dataset, it either runs the scenarios sequentially
// or distributes them across a bounded worker pool, writing each result
// to the result store at its pre-assigned scenario index. No mutable
// state is shared between scenario workers — each worker constructs its
// own internal/runner.Runner, and the Runner builds a fresh ecosystem.Cache
// for every replicate of every scenario it runs, matching
// spec.md §5's "Caches ... must not be shared across concurrent
// scenarios" rule.
package batch

import (
	"log/slog"
	"sync"

	"github.com/reeflab/coralmcda/internal/climate"
	"github.com/reeflab/coralmcda/internal/domain"
	"github.com/reeflab/coralmcda/internal/mcda"
	"github.com/reeflab/coralmcda/internal/runner"
	"github.com/reeflab/coralmcda/internal/scenario"
	"gopkg.in/cheggaaa/pb.v1"
)

// DefaultParallelThreshold is the scenario-count cutoff below which the
// driver runs sequentially rather than paying worker-pool setup cost,
// per spec.md §4.H's "order of 64".
const DefaultParallelThreshold = 64

// ResultStore receives each scenario's result as it completes. Index is
// the scenario's ordinal position in the parameter table the Driver was
// given, matching spec.md §6's "writes to a disjoint slice of the result
// store (index = scenario ordinal)".
type ResultStore interface {
	WriteScenario(index int, params scenario.Params, result *runner.Result) error
}

// Driver runs a table of scenario parameter rows against a fixed Domain
// and forcing dataset, fanning out across workers when the table is
// large enough to be worth it.
type Driver struct {
	Domain            *domain.Domain
	Forcing           *climate.Forcing
	Rules             []mcda.ToleranceRule
	InitialCover      []float64
	Workers           int
	ParallelThreshold int

	// ShowProgress enables a cheggaaa/pb.v1 console progress bar over the
	// scenario table. Off by default so library callers (e.g. tests) don't
	// write to stdout.
	ShowProgress bool
}

// New builds a Driver. Workers is left at 0, which workerCount turns into
// 8 workers (DefaultParallelThreshold / 8) when a parallel run starts.
func New(dom *domain.Domain, forcing *climate.Forcing, rules []mcda.ToleranceRule, initialCover []float64) *Driver {
	return &Driver{
		Domain:            dom,
		Forcing:           forcing,
		Rules:             rules,
		InitialCover:      initialCover,
		ParallelThreshold: DefaultParallelThreshold,
	}
}

type job struct {
	index  int
	params scenario.Params
}

// Run executes every row of params against the Driver's Domain and
// forcing dataset, delivering each completed result to store under its
// scenario index. A sequential run delivers in index order; a parallel
// run delivers in completion order, which may differ from index order.
// A scenario-local failure is logged and does not abort the batch; the
// resulting Result carries Failed=true per spec.md §7's propagation
// policy. Run itself returns an error only if store.WriteScenario does.
func (d *Driver) Run(params []scenario.Params, store ResultStore) error {
	if len(params) <= d.threshold() {
		return d.runSequential(params, store)
	}
	return d.runParallel(params, store)
}

func (d *Driver) threshold() int {
	if d.ParallelThreshold > 0 {
		return d.ParallelThreshold
	}
	return DefaultParallelThreshold
}

func (d *Driver) runSequential(params []scenario.Params, store ResultStore) error {
	var bar *pb.ProgressBar
	if d.ShowProgress {
		bar = pb.StartNew(len(params))
		bar.ShowTimeLeft = false
	}
	rn := runner.New(d.Domain, d.Forcing, d.Rules)
	for i, p := range params {
		result := d.runOne(rn, p, i)
		if err := store.WriteScenario(i, p, result); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.FinishPrint("batch: finished sequential run")
	}
	return nil
}

func (d *Driver) runParallel(params []scenario.Params, store ResultStore) error {
	workerCount := d.workerCount()
	if workerCount > len(params) {
		workerCount = len(params)
	}

	jobs := make(chan job)
	type outcome struct {
		index  int
		params scenario.Params
		result *runner.Result
	}
	results := make(chan outcome, len(params))

	var bar *pb.ProgressBar
	if d.ShowProgress {
		bar = pb.StartNew(len(params))
		bar.ShowTimeLeft = false
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			// Each worker owns one Runner (and, inside it, one Cache per
			// replicate loop); never shared across goroutines, per
			// spec.md §5's inner-layer single-threaded rule.
			rn := runner.New(d.Domain, d.Forcing, d.Rules)
			for j := range jobs {
				result := d.runOne(rn, j.params, j.index)
				results <- outcome{index: j.index, params: j.params, result: result}
				if bar != nil {
					bar.Increment()
				}
			}
		}()
	}

	go func() {
		for i, p := range params {
			jobs <- job{index: i, params: p}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var writeErr error
	for o := range results {
		if writeErr != nil {
			continue
		}
		if err := store.WriteScenario(o.index, o.params, o.result); err != nil {
			writeErr = err
		}
	}
	if bar != nil {
		bar.FinishPrint("batch: finished parallel run")
	}
	return writeErr
}

func (d *Driver) runOne(rn *runner.Runner, p scenario.Params, index int) *runner.Result {
	result := rn.Run(p, d.InitialCover)
	if result.Failed {
		slog.Warn("batch: scenario failed partway through", "index", index, "rcp", p.RCP)
	}
	return result
}

func (d *Driver) workerCount() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return DefaultParallelThreshold / 8 // 8 workers by default, well under the threshold
}
