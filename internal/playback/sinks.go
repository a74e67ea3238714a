package playback

import (
	"log"

	"tsunami/internal/shallow"
)

type output struct {
	write func(shallow.Snapshot) error
	retag func(string)
}

// Sinks fans snapshots out to every registered output and keeps them all on
// the same run id.
type Sinks struct {
	runID   string
	outputs []output
}

// NewSinks returns an empty fan-out for runID.
func NewSinks(runID string) *Sinks {
	return &Sinks{runID: runID}
}

// Add registers an output. retag may be nil for outputs that carry no run id.
func (s *Sinks) Add(write func(shallow.Snapshot) error, retag func(string)) {
	s.outputs = append(s.outputs, output{write: write, retag: retag})
}

// RunID returns the id outputs are currently tagged with.
func (s *Sinks) RunID() string { return s.runID }

// Publish passes snap to every output in registration order and stops at the
// first error. It matches the shallow.Loop OnStep signature.
func (s *Sinks) Publish(snap shallow.Snapshot) error {
	for _, o := range s.outputs {
		if err := o.write(snap); err != nil {
			return err
		}
	}
	return nil
}

// Retag moves every output onto runID and then publishes snap, normally the
// step-0 state of the new run.
func (s *Sinks) Retag(runID string, snap shallow.Snapshot) error {
	s.runID = runID
	for _, o := range s.outputs {
		if o.retag != nil {
			o.retag(runID)
		}
	}
	log.Printf("Run %s", runID)
	return s.Publish(snap)
}
