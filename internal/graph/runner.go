package graph

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Result records how one task ended.
type Result struct {
	Status   Status
	Err      error
	Duration time.Duration
}

// Summary holds the outcome of a run, keyed by task name.
type Summary struct {
	order   []string
	Results map[string]Result
}

// OK reports whether every task succeeded.
func (s *Summary) OK() bool {
	for _, r := range s.Results {
		if r.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// Status returns the recorded status for name, or StatusPending if the
// task is unknown.
func (s *Summary) Status(name string) Status {
	if r, ok := s.Results[name]; ok {
		return r.Status
	}
	return StatusPending
}

// Failed returns the names of failed tasks in graph insertion order.
func (s *Summary) Failed() []string {
	var out []string
	for _, name := range s.order {
		if s.Results[name].Status == StatusFailed {
			out = append(out, name)
		}
	}
	return out
}

// FirstError returns the error of the first failed task in graph
// insertion order, or nil if nothing failed.
func (s *Summary) FirstError() error {
	for _, name := range s.order {
		if r := s.Results[name]; r.Status == StatusFailed {
			return r.Err
		}
	}
	return nil
}

// Runner executes a graph with a bounded worker pool.
type Runner struct {
	// Jobs is the maximum number of tasks running at once. Zero or
	// negative means runtime.NumCPU().
	Jobs int

	// Notify, when set, is called once per status change
	// (running/succeeded/failed/skipped). Called from worker
	// goroutines; implementations must be safe for concurrent use.
	Notify func(task string, status Status)
}

// Run executes every task in the graph. A task starts only after all
// of its dependencies succeeded; tasks downstream of a failure are
// marked skipped and never started. Independent tasks keep running
// after a failure. Returns an error only for an invalid graph; task
// failures are reported through the summary.
func (r *Runner) Run(ctx context.Context, g *Graph) (*Summary, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	total := g.Len()
	summary := &Summary{order: g.Names(), Results: make(map[string]Result, total)}
	if total == 0 {
		return summary, nil
	}

	jobs := r.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if jobs > total {
		jobs = total
	}

	var (
		mu         sync.Mutex
		state      = make(map[string]Status, total)
		waiting    = make(map[string]int, total)
		dependents = g.dependentsOf()
		ready      = make(chan string, total)
		wg         sync.WaitGroup
	)

	wg.Add(total)
	for _, name := range g.Names() {
		state[name] = StatusPending
		waiting[name] = len(g.tasks[name].Needs)
	}
	for _, name := range g.Names() {
		if waiting[name] == 0 {
			ready <- name
		}
	}

	notify := func(name string, st Status) {
		if r.Notify != nil {
			r.Notify(name, st)
		}
	}

	// skipLocked marks every pending task downstream of name as
	// skipped. Caller holds mu; returns the names marked.
	var skipLocked func(name string) []string
	skipLocked = func(name string) []string {
		var marked []string
		for _, dep := range dependents[name] {
			if state[dep] != StatusPending {
				continue
			}
			state[dep] = StatusSkipped
			summary.Results[dep] = Result{
				Status: StatusSkipped,
				Err:    fmt.Errorf("skipped: dependency %q did not succeed", name),
			}
			marked = append(marked, dep)
			marked = append(marked, skipLocked(dep)...)
		}
		return marked
	}

	worker := func() {
		for name := range ready {
			task := g.tasks[name]

			mu.Lock()
			state[name] = StatusRunning
			mu.Unlock()
			notify(name, StatusRunning)

			start := time.Now()
			err := ctx.Err()
			if err == nil {
				err = task.Run(ctx)
			}
			elapsed := time.Since(start)

			mu.Lock()
			if err != nil {
				state[name] = StatusFailed
				summary.Results[name] = Result{Status: StatusFailed, Err: err, Duration: elapsed}
				skipped := skipLocked(name)
				mu.Unlock()

				notify(name, StatusFailed)
				for _, s := range skipped {
					notify(s, StatusSkipped)
					wg.Done()
				}
				wg.Done()
				continue
			}

			state[name] = StatusSucceeded
			summary.Results[name] = Result{Status: StatusSucceeded, Duration: elapsed}
			for _, dep := range dependents[name] {
				if state[dep] != StatusPending {
					continue
				}
				waiting[dep]--
				if waiting[dep] == 0 {
					ready <- dep
				}
			}
			mu.Unlock()

			notify(name, StatusSucceeded)
			wg.Done()
		}
	}

	for i := 0; i < jobs; i++ {
		go worker()
	}

	wg.Wait()
	close(ready)
	return summary, nil
}
