package llm

// Delta is one incremental fragment of a streamed generation response.
// Providers emit either bare text or a structured response event; both
// resolve to a text fragment (possibly empty).
type Delta interface {
	Fragment() string
}

// TextDelta is a plain text fragment.
type TextDelta string

func (d TextDelta) Fragment() string { return string(d) }

// ResponseEvent is a structured streaming event carrying a delta fragment.
type ResponseEvent struct {
	Delta string
	Model string
	Done  bool
}

func (e ResponseEvent) Fragment() string { return e.Delta }

type streamItem struct {
	delta Delta
	err   error
}

// Stream is a pull-based, single-use sequence of generation deltas.
// Next advances the stream; once it returns false, Err reports why it
// ended (nil on normal completion). Deltas must be consumed in order.
// A consumer that stops draining early must call Close so the producer
// can release its connection.
type Stream struct {
	items  chan streamItem
	quit   chan struct{}
	cancel func()
	cur    Delta
	err    error
	done   bool
	closed bool
}

// StreamProducer is the sending half of a Stream, held by the provider.
type StreamProducer struct {
	items chan<- streamItem
	quit  <-chan struct{}
}

// NewStream creates a connected consumer/producer pair. The buffer
// decouples the provider goroutine from a slow consumer.
func NewStream(buffer int) (*Stream, *StreamProducer) {
	items := make(chan streamItem, buffer)
	quit := make(chan struct{})
	return &Stream{items: items, quit: quit}, &StreamProducer{items: items, quit: quit}
}

// StreamFromDeltas builds an already-complete stream from fixed deltas.
func StreamFromDeltas(deltas ...Delta) *Stream {
	s, p := NewStream(len(deltas))
	for _, d := range deltas {
		p.Send(d)
	}
	p.Close(nil)
	return s
}

// Send queues one delta. Blocks when the buffer is full; returns false
// once the consumer has closed the stream, after which the producer
// should stop.
func (p *StreamProducer) Send(d Delta) bool {
	select {
	case p.items <- streamItem{delta: d}:
		return true
	case <-p.quit:
		return false
	}
}

// Close terminates the stream. A non-nil err is surfaced via Stream.Err.
func (p *StreamProducer) Close(err error) {
	if err != nil {
		select {
		case p.items <- streamItem{err: err}:
		case <-p.quit:
		}
	}
	close(p.items)
}

// OnClose registers a function invoked when the consumer closes the
// stream, typically the cancel of the request context feeding it.
func (s *Stream) OnClose(cancel func()) {
	s.cancel = cancel
}

// Close abandons the stream: pending Sends unblock, the registered
// cancel function runs, and Next returns false from here on. Safe to
// call more than once and after normal exhaustion; not safe
// concurrently with Next.
func (s *Stream) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.done = true
	close(s.quit)
	if s.cancel != nil {
		s.cancel()
	}
}

// Next blocks until the next delta is available. It returns false when
// the stream is exhausted, failed, or closed.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	it, ok := <-s.items
	if !ok {
		s.done = true
		return false
	}
	if it.err != nil {
		s.err = it.err
		s.done = true
		return false
	}
	s.cur = it.delta
	return true
}

// Current returns the delta produced by the last successful Next.
func (s *Stream) Current() Delta {
	return s.cur
}

// Err returns the terminal error, if any, once Next has returned false.
func (s *Stream) Err() error {
	return s.err
}
