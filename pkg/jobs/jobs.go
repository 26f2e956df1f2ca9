// Package jobs holds the background jobs run by the server scheduler.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Job is a registered background job.
type Job struct {
	Name string
	// ID is the scheduler entry of the job once it is scheduled.
	ID     int
	Runner Runner
}

// Runner is a job runner. An empty Spec disables the job.
type Runner interface {
	Spec(context.Context) string
	Func(context.Context) func()
}

var (
	mtx      sync.Mutex
	registry = make(map[string]*Job)
)

// Register registers runner under name. It panics when name is taken.
func Register(name string, runner Runner) {
	mtx.Lock()
	defer mtx.Unlock()
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("jobs: %q registered twice", name))
	}
	registry[name] = &Job{Name: name, Runner: runner}
}

// Get returns the job registered under name.
func Get(name string) (*Job, bool) {
	mtx.Lock()
	defer mtx.Unlock()
	j, ok := registry[name]
	return j, ok
}

// List returns the registered jobs ordered by name.
func List() []*Job {
	mtx.Lock()
	defer mtx.Unlock()
	list := make([]*Job, 0, len(registry))
	for _, j := range registry {
		list = append(list, j)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}
