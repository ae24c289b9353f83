// Package accnt records per-process scheduling accounting — how many
// PIT quanta each pid has been handed, and which terminal it ran
// under — the way a hosted kernel simulator exposes scheduler
// fairness to an external reporting tool instead of a live /proc
// tree. cmd/profreport turns a recorded snapshot into a pprof
// profile; internal/proc's scheduler records into it, if given one,
// on every context switch.
package accnt

import (
	"encoding/json"
	"io"
)

// Sample is one pid's accumulated scheduling history.
type Sample struct {
	Pid   int    `json:"pid"`
	Term  int    `json:"term"`
	Ticks uint64 `json:"ticks"`
}

// Recorder accumulates Tick calls into per-pid counters. The zero
// value is ready to use; a nil *Recorder is also safe to call Tick on
// (it is a no-op), so wiring a Recorder into the scheduler is always
// optional.
type Recorder struct {
	counts map[int]*Sample
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{counts: make(map[int]*Sample)}
}

// Tick records one scheduling quantum handed to pid while it ran
// under term.
func (r *Recorder) Tick(pid, term int) {
	if r == nil {
		return
	}
	if r.counts == nil {
		r.counts = make(map[int]*Sample)
	}
	s, ok := r.counts[pid]
	if !ok {
		s = &Sample{Pid: pid, Term: term}
		r.counts[pid] = s
	}
	s.Term = term
	s.Ticks++
}

// Snapshot returns every recorded sample, in no particular order.
func (r *Recorder) Snapshot() []Sample {
	if r == nil {
		return nil
	}
	out := make([]Sample, 0, len(r.counts))
	for _, s := range r.counts {
		out = append(out, *s)
	}
	return out
}

// WriteJSON serializes the current snapshot as a JSON array, the
// interchange format cmd/illinix writes and cmd/profreport reads.
func (r *Recorder) WriteJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(r.Snapshot())
}

// ReadSamples parses the JSON array WriteJSON produces.
func ReadSamples(rd io.Reader) ([]Sample, error) {
	var samples []Sample
	if err := json.NewDecoder(rd).Decode(&samples); err != nil {
		return nil, err
	}
	return samples, nil
}
