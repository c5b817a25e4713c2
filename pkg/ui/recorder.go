package ui

import "sync"

// State is the kind of the last update a container received.
type State string

const (
	StateIdle    State = ""
	StateLoading State = "loading"
	StateError   State = "error"
	StateNotice  State = "notice"
	StateCleared State = "cleared"
)

// Update is one recorded container transition.
type Update struct {
	State   State
	Message string
}

// Recorder is an in-memory Container that keeps every update.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *Recorder) record(s State, msg string) {
	r.mu.Lock()
	r.updates = append(r.updates, Update{State: s, Message: msg})
	r.mu.Unlock()
}

func (r *Recorder) Loading(msg string) { r.record(StateLoading, msg) }
func (r *Recorder) Error(msg string)   { r.record(StateError, msg) }
func (r *Recorder) Notice(msg string)  { r.record(StateNotice, msg) }
func (r *Recorder) Clear()             { r.record(StateCleared, "") }

// Updates returns a copy of every update in order.
func (r *Recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

// Last returns the most recent update, or a zero Update.
func (r *Recorder) Last() Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return Update{}
	}
	return r.updates[len(r.updates)-1]
}

// State returns the state of the most recent update.
func (r *Recorder) State() State { return r.Last().State }
