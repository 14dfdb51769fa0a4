package graph

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func mustAdd(t *testing.T, g *Graph, task Task) {
	t.Helper()
	if err := g.Add(task); err != nil {
		t.Fatalf("Add(%q): %v", task.Name, err)
	}
}

func noop(ctx context.Context) error { return nil }

func TestAddDuplicate(t *testing.T) {
	g := New()
	mustAdd(t, g, Task{Name: "build-linux-x86_64", Run: noop})

	err := g.Add(Task{Name: "build-linux-x86_64", Run: noop})
	if !errors.Is(err, ErrDuplicateTask) {
		t.Fatalf("Add duplicate: got %v, want ErrDuplicateTask", err)
	}
}

func TestAddEmptyName(t *testing.T) {
	g := New()
	if err := g.Add(Task{Run: noop}); err == nil {
		t.Fatal("Add with empty name should fail")
	}
}

func TestValidateUnknownDependency(t *testing.T) {
	g := New()
	mustAdd(t, g, Task{Name: "collect", Needs: []string{"build-linux-x86_64"}, Run: noop})

	err := g.Validate()
	if !errors.Is(err, ErrUnknownDependency) {
		t.Fatalf("Validate: got %v, want ErrUnknownDependency", err)
	}
}

func TestValidateCycle(t *testing.T) {
	g := New()
	mustAdd(t, g, Task{Name: "a", Needs: []string{"c"}, Run: noop})
	mustAdd(t, g, Task{Name: "b", Needs: []string{"a"}, Run: noop})
	mustAdd(t, g, Task{Name: "c", Needs: []string{"b"}, Run: noop})

	err := g.Validate()
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("Validate: got %v, want ErrCycle", err)
	}
}

func TestTopologicalOrder(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
		want  []string
	}{
		{
			name: "pipeline shape",
			tasks: []Task{
				{Name: "build-linux-x86_64"},
				{Name: "build-macos-aarch64"},
				{Name: "build-windows-x86_64"},
				{Name: "collect", Needs: []string{"build-linux-x86_64", "build-macos-aarch64", "build-windows-x86_64"}},
				{Name: "package", Needs: []string{"collect"}},
			},
			want: []string{"build-linux-x86_64", "build-macos-aarch64", "build-windows-x86_64", "collect", "package"},
		},
		{
			name: "insertion order breaks ties",
			tasks: []Task{
				{Name: "z"},
				{Name: "a"},
				{Name: "m", Needs: []string{"z", "a"}},
			},
			want: []string{"z", "a", "m"},
		},
		{
			name:  "empty",
			tasks: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, task := range tt.tasks {
				task.Run = noop
				mustAdd(t, g, task)
			}
			got, err := g.TopologicalOrder()
			if err != nil {
				t.Fatalf("TopologicalOrder: %v", err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopologicalOrder = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNamesIsACopy(t *testing.T) {
	g := New()
	mustAdd(t, g, Task{Name: "collect", Run: noop})

	names := g.Names()
	names[0] = "mutated"
	if g.Names()[0] != "collect" {
		t.Error("Names should return a copy")
	}
}
