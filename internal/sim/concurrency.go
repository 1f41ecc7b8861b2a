package sim

import "github.com/sourcegraph/conc/pool"

// Runner executes a batch of independent tasks, possibly concurrently,
// and returns only once every task has completed — the barrier that
// keeps the evaluate phase from bleeding into the execute phase.
type Runner interface {
	Run(tasks []func())
}

// sequentialRunner is the default single-threaded loop: tasks run in
// order, on the caller's own goroutine. Cheapest option for small
// circuits, where per-task work is microseconds and pool submission
// overhead would dominate.
type sequentialRunner struct{}

func (sequentialRunner) Run(tasks []func()) {
	for _, task := range tasks {
		task()
	}
}

// parallelRunner fans tasks out across a bounded worker pool built on
// sourcegraph/conc, joining (via Wait) before returning — preserving the
// "evaluate phase observes a consistent snapshot" ordering guarantee
// across phases.
type parallelRunner struct {
	maxGoroutines int
}

func newParallelRunner(maxGoroutines int) *parallelRunner {
	if maxGoroutines <= 0 {
		maxGoroutines = 4
	}
	return &parallelRunner{maxGoroutines: maxGoroutines}
}

func (r *parallelRunner) Run(tasks []func()) {
	p := pool.New().WithMaxGoroutines(r.maxGoroutines)
	for _, task := range tasks {
		t := task
		p.Go(func() { t() })
	}
	p.Wait()
}

// ConcurrencyConfig tunes the factory's single-vs-parallel choice.
type ConcurrencyConfig struct {
	// ComponentThreshold is the component count at or above which the
	// parallel runner is selected. Below it, sequential always wins.
	ComponentThreshold int
	// ComponentWorkers and VNETWorkers size the parallel runner's pools
	// for the execute phase (per-component) and evaluate phase
	// (per-VNET) respectively.
	ComponentWorkers int
	VNETWorkers      int
	// ForceSequential/ForceParallel override the threshold heuristic,
	// e.g. for deterministic tests.
	ForceSequential bool
	ForceParallel   bool
}

// DefaultConcurrencyConfig matches §4.8/§5's defaults.
func DefaultConcurrencyConfig() ConcurrencyConfig {
	return ConcurrencyConfig{
		ComponentThreshold: 2000,
		ComponentWorkers:   4,
		VNETWorkers:        2,
	}
}

// runnerPair bundles the two runners a loop iteration needs: one for the
// evaluate phase's per-VNET combine, one for the execute phase's
// per-component evaluate calls.
type runnerPair struct {
	vnetRunner      Runner
	componentRunner Runner
}

// newRunnerPair is the concurrency-layer factory: it chooses sequential
// or parallel runners based on componentCount and cfg.
func newRunnerPair(componentCount int, cfg ConcurrencyConfig) runnerPair {
	useParallel := componentCount >= cfg.ComponentThreshold
	if cfg.ForceSequential {
		useParallel = false
	}
	if cfg.ForceParallel {
		useParallel = true
	}
	if !useParallel {
		return runnerPair{vnetRunner: sequentialRunner{}, componentRunner: sequentialRunner{}}
	}
	return runnerPair{
		vnetRunner:      newParallelRunner(cfg.VNETWorkers),
		componentRunner: newParallelRunner(cfg.ComponentWorkers),
	}
}
