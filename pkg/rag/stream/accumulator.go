package stream

import (
	"doc-assistant-be/pkg/llm"
)

// Snapshots is a finite, single-use, pull-driven sequence of growing
// text snapshots. Each successful Next makes a new snapshot available
// via Text; the last snapshot is always the complete output. A consumer
// abandoning the sequence early must call Close to release the
// underlying generation stream.
type Snapshots interface {
	Next() bool
	Text() string
	Err() error
	Close()
}

// Snapshotter accumulates generation deltas into cumulative snapshots.
// One snapshot is emitted per delta, empty deltas included, so a
// trailing empty delta yields a duplicate of the final text and a
// consumer that only keeps the latest emission still sees the full
// response.
type Snapshotter struct {
	stream *llm.Stream
	full   string
}

func NewSnapshotter(s *llm.Stream) *Snapshotter {
	return &Snapshotter{stream: s}
}

func (a *Snapshotter) Next() bool {
	if !a.stream.Next() {
		return false
	}
	a.full += a.stream.Current().Fragment()
	return true
}

func (a *Snapshotter) Text() string {
	return a.full
}

func (a *Snapshotter) Err() error {
	return a.stream.Err()
}

func (a *Snapshotter) Close() {
	a.stream.Close()
}

// Suffixed appends a fixed suffix as one extra snapshot once the inner
// sequence is exhausted without error. Used to attach a rendered sources
// block after the generated answer finishes streaming.
type Suffixed struct {
	inner    Snapshots
	suffix   string
	emitted  bool
	finalTxt string
}

func NewSuffixed(inner Snapshots, suffix string) *Suffixed {
	return &Suffixed{inner: inner, suffix: suffix}
}

func (s *Suffixed) Next() bool {
	if s.inner.Next() {
		s.finalTxt = s.inner.Text()
		return true
	}
	if s.emitted || s.suffix == "" || s.inner.Err() != nil {
		return false
	}
	s.emitted = true
	s.finalTxt = s.inner.Text() + s.suffix
	return true
}

func (s *Suffixed) Text() string {
	return s.finalTxt
}

func (s *Suffixed) Err() error {
	return s.inner.Err()
}

func (s *Suffixed) Close() {
	s.inner.Close()
}

// Static is a one-element snapshot sequence, used by modes that produce
// a single formatted output instead of a growing stream.
type Static struct {
	text string
	done bool
}

func NewStatic(text string) *Static {
	return &Static{text: text}
}

func (s *Static) Next() bool {
	if s.done {
		return false
	}
	s.done = true
	return true
}

func (s *Static) Text() string {
	return s.text
}

func (s *Static) Err() error {
	return nil
}

func (s *Static) Close() {}
