// Package batch runs per-entity fetch work over a bounded worker pool.
// Every submitted item is attempted exactly once; a failing item is
// tallied and never aborts its siblings. There is no cancellation:
// bounding each item's own work (page ceilings, HTTP timeouts) is the
// only way to bound total run time.
package batch

import (
	"fmt"
	"log/slog"
	"sync"
)

type Outcome[T any] struct {
	Item T
	Err  error
}

type Report[T any] struct {
	Outcomes  []Outcome[T]
	Succeeded int
	Failed    int
}

// Failures returns the outcomes that errored, in submission order.
func (r Report[T]) Failures() []Outcome[T] {
	var out []Outcome[T]
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Run distributes items across `workers` goroutines. workers <= 1
// degenerates to a strictly sequential loop.
func Run[T any](items []T, workers int, work func(item T) error) Report[T] {
	outcomes := make([]Outcome[T], len(items))

	if workers <= 1 {
		for i, item := range items {
			outcomes[i] = Outcome[T]{Item: item, Err: attempt(item, work)}
		}
		return tally(outcomes)
	}

	indexes := make(chan int)
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				outcomes[i] = Outcome[T]{Item: items[i], Err: attempt(items[i], work)}
			}
		}()
	}
	for i := range items {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return tally(outcomes)
}

// attempt confines a panic in one item's work to that item.
func attempt[T any](item T, work func(item T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			slog.Error("worker panicked", "item", fmt.Sprint(item), "panic", r)
		}
	}()
	return work(item)
}

func tally[T any](outcomes []Outcome[T]) Report[T] {
	report := Report[T]{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	return report
}
