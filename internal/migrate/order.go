package migrate

import (
	"fmt"

	converrors "github.com/standardbeagle/larchfix/internal/errors"
	"github.com/standardbeagle/larchfix/internal/store"
)

// checkAcyclic verifies that the parent pointers of the layers in parents
// never loop. Pointers leading outside the set terminate a chain; those
// layers were converted by an earlier run or sit beyond the cutoff.
func checkAcyclic(parents map[store.LayerID]*store.LayerID) error {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[store.LayerID]int, len(parents))

	for id := range parents {
		if state[id] != unvisited {
			continue
		}
		// walk the parent chain, marking the path
		var path []store.LayerID
		cur := id
		for {
			if state[cur] == inProgress {
				return fmt.Errorf("layer %s: %w", cur, converrors.ErrLayerCycle)
			}
			if state[cur] == done {
				break
			}
			state[cur] = inProgress
			path = append(path, cur)
			p, inSet := parents[cur]
			if p == nil || !inSet {
				break
			}
			if _, known := parents[*p]; !known {
				break
			}
			cur = *p
		}
		for _, n := range path {
			state[n] = done
		}
	}
	return nil
}
