package llm

import (
	"testing"
	"time"
)

func TestStreamFromDeltasYieldsAll(t *testing.T) {
	s := StreamFromDeltas(TextDelta("a"), TextDelta("b"))

	var got []string
	for s.Next() {
		got = append(got, s.Current().Fragment())
	}
	if s.Err() != nil {
		t.Fatalf("unexpected error: %v", s.Err())
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("deltas = %v, want [a b]", got)
	}
}

func TestCloseUnblocksPendingSend(t *testing.T) {
	s, p := NewStream(1)
	p.Send(TextDelta("first"))

	result := make(chan bool, 1)
	go func() {
		// Buffer is full and nothing is draining, so this parks
		// until the consumer closes the stream
		result <- p.Send(TextDelta("second"))
	}()

	select {
	case <-result:
		t.Fatal("send completed with a full buffer and no consumer")
	case <-time.After(20 * time.Millisecond):
	}

	s.Close()

	select {
	case ok := <-result:
		if ok {
			t.Error("send reported success on a closed stream")
		}
	case <-time.After(time.Second):
		t.Fatal("send still blocked after Close")
	}
}

func TestCloseRunsRegisteredCancel(t *testing.T) {
	s, _ := NewStream(1)
	canceled := 0
	s.OnClose(func() { canceled++ })

	s.Close()
	s.Close()

	if canceled != 1 {
		t.Errorf("cancel ran %d times, want once", canceled)
	}
	if s.Next() {
		t.Error("Next advanced after Close")
	}
}

func TestProducerCloseWithErrorDoesNotBlockAfterConsumerClose(t *testing.T) {
	s, p := NewStream(0)
	s.Close()

	done := make(chan struct{})
	go func() {
		p.Close(errDummy{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer Close blocked on an abandoned stream")
	}
}

type errDummy struct{}

func (errDummy) Error() string { return "dummy" }
