package reconcile

import (
	"context"
	"slices"

	"golang.org/x/sync/semaphore"

	models "idealite/internal/domain/models/workspace"
)

type nodeLock struct {
	sem  *semaphore.Weighted
	refs int
}

// lockKeys returns the sorted, deduplicated lock keys for refs. Sorting gives
// every mutation the same acquisition order so overlapping sets cannot
// deadlock.
func lockKeys(refs ...models.NodeRef) []string {
	keys := make([]string, 0, len(refs))
	for _, r := range refs {
		keys = append(keys, r.String())
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

// acquire blocks until every key is held or ctx is done. On error nothing is
// held.
func (s *Session) acquire(ctx context.Context, keys []string) error {
	sems := make([]*semaphore.Weighted, len(keys))
	s.lockMu.Lock()
	for i, k := range keys {
		l, ok := s.locks[k]
		if !ok {
			l = &nodeLock{sem: semaphore.NewWeighted(1)}
			s.locks[k] = l
		}
		l.refs++
		sems[i] = l.sem
	}
	s.lockMu.Unlock()

	for i, sem := range sems {
		if err := sem.Acquire(ctx, 1); err != nil {
			for _, held := range sems[:i] {
				held.Release(1)
			}
			s.unref(keys)
			return err
		}
	}
	return nil
}

func (s *Session) release(keys []string) {
	s.lockMu.Lock()
	for _, k := range keys {
		s.locks[k].sem.Release(1)
	}
	s.lockMu.Unlock()
	s.unref(keys)
}

func (s *Session) unref(keys []string) {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	for _, k := range keys {
		l := s.locks[k]
		l.refs--
		if l.refs == 0 {
			delete(s.locks, k)
		}
	}
}

// covers reports whether every key in want is in held. Both are sorted.
func covers(held, want []string) bool {
	for _, k := range want {
		if _, found := slices.BinarySearch(held, k); !found {
			return false
		}
	}
	return true
}
