package service

import (
	"sync"

	id "gavel/pkg/domain"
)

// keyedMutex serializes all history mutations for one judge. Mutexes are
// created on first use and never collected; the judge roster is bounded.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[id.JudgeID]*sync.Mutex
}

func (k *keyedMutex) lock(judgeID id.JudgeID) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[id.JudgeID]*sync.Mutex)
	}
	m := k.locks[judgeID]
	if m == nil {
		m = &sync.Mutex{}
		k.locks[judgeID] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
