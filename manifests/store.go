package manifests

import (
	"sort"
	"sync"

	"github.com/openrank/score-publisher/common"
)

// Store holds every manifest registered so far, keyed by timestamp, plus an
// index of which timestamps belong to which epoch. It only ever grows:
// nothing is removed for the lifetime of the process, and a restart rebuilds
// it from whatever manifest files remain on disk.
type Store struct {
	mu          sync.Mutex
	byTimestamp map[int64]*Manifest
	byEpoch     map[int64]map[int64]bool
}

func NewStore() *Store {
	return &Store{
		byTimestamp: make(map[int64]*Manifest),
		byEpoch:     make(map[int64]map[int64]bool),
	}
}

func (s *Store) Has(timestamp int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byTimestamp[timestamp]
	return ok
}

// Register files the manifest under its timestamp and epoch. Registering the
// same timestamp twice is a no-op; the first manifest wins and false is
// returned.
func (s *Store) Register(m *Manifest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byTimestamp[m.Timestamp]; ok {
		return false
	}
	s.byTimestamp[m.Timestamp] = m

	set, ok := s.byEpoch[m.Epoch]
	if !ok {
		set = make(map[int64]bool)
		s.byEpoch[m.Epoch] = set
	}
	set[m.Timestamp] = true
	return true
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byTimestamp)
}

// SelectCurrentEpoch returns the highest epoch seen so far and its
// timestamps in ascending order. Returns common.ErrEmptyStore when nothing
// has been registered yet, which callers treat as "nothing to publish".
func (s *Store) SelectCurrentEpoch() (int64, []int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.byEpoch) == 0 {
		return 0, nil, common.ErrEmptyStore
	}

	var current int64
	first := true
	for epoch := range s.byEpoch {
		if first || epoch > current {
			current = epoch
			first = false
		}
	}

	timestamps := make([]int64, 0, len(s.byEpoch[current]))
	for ts := range s.byEpoch[current] {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	return current, timestamps, nil
}
