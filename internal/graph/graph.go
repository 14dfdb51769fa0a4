// Package graph models the release pipeline as named tasks with
// declared dependencies and runs them in topological order. Independent
// tasks run concurrently; a failed task marks every task downstream of
// it as skipped without disturbing independent work (fail-fast, no
// partial results past a barrier).
package graph

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrDuplicateTask     = errors.New("duplicate task name")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrCycle             = errors.New("dependency cycle")
)

// Task is one unit of work. Needs lists the names of tasks that must
// succeed before this one may start.
type Task struct {
	Name  string
	Needs []string
	Run   func(ctx context.Context) error
}

// Graph is a set of tasks with dependency edges. Insertion order is
// preserved and used as the deterministic tie-break everywhere order
// matters (scheduling, reporting).
type Graph struct {
	tasks map[string]*Task
	order []string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{tasks: make(map[string]*Task)}
}

// Add registers a task. Task names must be unique.
func (g *Graph) Add(t Task) error {
	if t.Name == "" {
		return fmt.Errorf("task name must not be empty")
	}
	if _, exists := g.tasks[t.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTask, t.Name)
	}
	g.tasks[t.Name] = &t
	g.order = append(g.order, t.Name)
	return nil
}

// Len returns the number of tasks.
func (g *Graph) Len() int {
	return len(g.order)
}

// Names returns task names in insertion order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Validate checks that every declared dependency exists and that the
// graph is acyclic. Runners call it before executing anything.
func (g *Graph) Validate() error {
	for _, name := range g.order {
		for _, dep := range g.tasks[name].Needs {
			if _, ok := g.tasks[dep]; !ok {
				return fmt.Errorf("%w: task %q needs %q", ErrUnknownDependency, name, dep)
			}
		}
	}
	if _, err := g.TopologicalOrder(); err != nil {
		return err
	}
	return nil
}

// TopologicalOrder returns a valid execution order, breaking ties by
// insertion order. Returns ErrCycle if no such order exists.
func (g *Graph) TopologicalOrder() ([]string, error) {
	indeg := make(map[string]int, len(g.order))
	dependents := make(map[string][]string, len(g.order))
	for _, name := range g.order {
		indeg[name] = len(g.tasks[name].Needs)
		for _, dep := range g.tasks[name].Needs {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for _, name := range g.order {
		if indeg[name] == 0 {
			ready = append(ready, name)
		}
	}

	out := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		out = append(out, name)
		for _, dep := range dependents[name] {
			indeg[dep]--
			if indeg[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(out) != len(g.order) {
		var stuck []string
		for _, name := range g.order {
			if indeg[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		return nil, fmt.Errorf("%w involving %v", ErrCycle, stuck)
	}
	return out, nil
}

// dependentsOf builds the reverse adjacency used for failure
// propagation.
func (g *Graph) dependentsOf() map[string][]string {
	out := make(map[string][]string, len(g.order))
	for _, name := range g.order {
		for _, dep := range g.tasks[name].Needs {
			out[dep] = append(out[dep], name)
		}
	}
	return out
}
