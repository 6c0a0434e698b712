package domain

import "sort"

// SessionSnapshot is a read-only copy of a session at one version.
// Hosts render from snapshots; they never see the live maps.
type SessionSnapshot struct {
	Version       uint64                 `json:"version"`
	ConnectionURI string                 `json:"connectionUri"`
	Backend       BackendKind            `json:"backend"`
	Queries       map[int]string         `json:"queries"`
	States        map[int]ExecutionState `json:"states"`
}

// QueryIDs returns the query ids in ascending order.
func (s SessionSnapshot) QueryIDs() []int {
	ids := make([]int, 0, len(s.Queries))
	for id := range s.Queries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// State returns the execution state for id, or an idle state if the query never ran.
func (s SessionSnapshot) State(id int) ExecutionState {
	if st, ok := s.States[id]; ok {
		return st
	}
	return ExecutionState{Status: QueryStatusIdle}
}

// Document is the persisted part of a session.
type Document struct {
	ConnectionURI string
	Backend       BackendKind
	Queries       map[int]string
}
