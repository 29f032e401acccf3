package store

import (
	"sync"
)

// In memory implementation of Store. The mutex makes dispatch and
// snapshot safe when fetch completions run on their own goroutines.
type MemoryStore struct {
	mutex sync.Mutex
	state State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: NewState(),
	}
}

func (s *MemoryStore) Dispatch(action Action) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	apply(&s.state, action)
	return nil
}

func (s *MemoryStore) State() (State, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	snapshot := State{
		Params:  s.state.Params,
		Results: map[Scope]Result{},
	}
	for scope, result := range s.state.Results {
		snapshot.Results[scope] = result
	}
	return snapshot, nil
}
