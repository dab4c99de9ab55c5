package batch

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolTalliesFailuresWithoutAborting(t *testing.T) {
	items := []string{"user1", "user2", "user3", "user4", "user5"}

	var mu sync.Mutex
	attempts := map[string]int{}

	report := Run(items, 3, func(item string) error {
		mu.Lock()
		attempts[item]++
		mu.Unlock()
		if item == "user2" {
			return fmt.Errorf("timeline fetch failed")
		}
		return nil
	})

	require.Equal(t, 4, report.Succeeded)
	require.Equal(t, 1, report.Failed)

	// all five attempted exactly once
	require.Len(t, attempts, 5)
	for item, n := range attempts {
		require.Equal(t, 1, n, item)
	}

	failures := report.Failures()
	require.Len(t, failures, 1)
	require.Equal(t, "user2", failures[0].Item)
}

func TestSequentialMode(t *testing.T) {
	var order []int
	report := Run([]int{1, 2, 3}, 1, func(item int) error {
		order = append(order, item)
		return nil
	})
	require.Equal(t, []int{1, 2, 3}, order)
	require.Equal(t, 3, report.Succeeded)
	require.Zero(t, report.Failed)
}

func TestPanicConfinedToItem(t *testing.T) {
	report := Run([]string{"a", "b"}, 2, func(item string) error {
		if item == "a" {
			panic("selector blew up")
		}
		return nil
	})
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, 1, report.Failed)
	require.ErrorContains(t, report.Failures()[0].Err, "selector blew up")
}
