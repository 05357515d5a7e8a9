package service

import (
	"sort"
	"sync"

	"github.com/diegoclair/support-roster-bot/internal/domain/entity"
)

// teamLocker serializes load-modify-store cycles per team
type teamLocker struct {
	mu    sync.Mutex
	locks map[entity.TeamID]*sync.Mutex
}

func newTeamLocker() *teamLocker {
	return &teamLocker{locks: make(map[entity.TeamID]*sync.Mutex)}
}

// Lock acquires the locks of every given team and returns the release func.
// Locks are always taken in sorted order so multi-team callers cannot deadlock.
func (l *teamLocker) Lock(teams ...entity.TeamID) func() {
	ids := make([]entity.TeamID, 0, len(teams))
	seen := make(map[entity.TeamID]bool, len(teams))
	for _, id := range teams {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (l *teamLocker) get(id entity.TeamID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}
