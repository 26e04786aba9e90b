package notifications

import (
	"log"
	"sort"
	"sync"
)

// Store owns the local read/deleted sets for one viewer. The sets are loaded
// at construction and written back in full on every mutation; collaborators
// only ever see the derived, already-filtered output of ComputeVisible.
type Store struct {
	role        Role
	persistence Persistence

	mu      sync.Mutex
	read    map[string]struct{}
	deleted map[string]struct{}
}

// NewStore loads persisted state for the given role. A load failure degrades
// to empty sets; losing local read state is preferable to failing the bell.
func NewStore(role Role, persistence Persistence) *Store {
	s := &Store{
		role:        role,
		persistence: persistence,
		read:        make(map[string]struct{}),
		deleted:     make(map[string]struct{}),
	}

	snap, err := persistence.Load()
	if err != nil {
		log.Printf("notifications: could not load persisted state: %v", err)
		return s
	}
	for _, id := range snap.Read {
		s.read[id] = struct{}{}
	}
	for _, id := range snap.Deleted {
		s.deleted[id] = struct{}{}
	}
	return s
}

// ComputeVisible filters and annotates the server list against the local
// sets, returning the visible items and the unread count.
func (s *Store) ComputeVisible(serverList []Record) ([]Item, int) {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return Reduce(serverList, snap, s.role)
}

// MarkRead adds one id to the read set.
func (s *Store) MarkRead(id string) error {
	s.mu.Lock()
	s.read[id] = struct{}{}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.persistence.Save(snap)
}

// MarkAllRead adds every given id to the read set. Callers must pass the ids
// of the list currently on screen, typically the items from the latest
// ComputeVisible; a stale list marks only the items it contains.
func (s *Store) MarkAllRead(ids []string) error {
	s.mu.Lock()
	for _, id := range ids {
		s.read[id] = struct{}{}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.persistence.Save(snap)
}

// Remove adds one id to the deleted set. The exclusion is permanent for this
// viewer, even if the server keeps re-reporting the id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	s.deleted[id] = struct{}{}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.persistence.Save(snap)
}

// ClearAll adds every given id to the deleted set.
func (s *Store) ClearAll(ids []string) error {
	s.mu.Lock()
	for _, id := range ids {
		s.deleted[id] = struct{}{}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.persistence.Save(snap)
}

// snapshotLocked builds the persisted form. Ids are sorted so the written
// record is deterministic.
func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Read:    make([]string, 0, len(s.read)),
		Deleted: make([]string, 0, len(s.deleted)),
	}
	for id := range s.read {
		snap.Read = append(snap.Read, id)
	}
	for id := range s.deleted {
		snap.Deleted = append(snap.Deleted, id)
	}
	sort.Strings(snap.Read)
	sort.Strings(snap.Deleted)
	return snap
}
