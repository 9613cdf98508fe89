package events

import (
	"context"
	"sync"
)

type Recorded struct {
	Topic string
	Key   string
	Event any
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
	Err    error
}

func (r *Recorder) Publish(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, Recorded{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists the Type field of every recorded user or task event.
func (r *Recorder) Types() []string {
	var out []string
	for _, e := range r.Events() {
		switch ev := e.Event.(type) {
		case UserEvent:
			out = append(out, ev.Type)
		case TaskEvent:
			out = append(out, ev.Type)
		}
	}
	return out
}
