package stream

import (
	"errors"
	"testing"
	"time"

	"doc-assistant-be/pkg/llm"
)

func drain(s Snapshots) []string {
	var out []string
	for s.Next() {
		out = append(out, s.Text())
	}
	return out
}

func TestSnapshotterAccumulates(t *testing.T) {
	src := llm.StreamFromDeltas(
		llm.TextDelta("Hel"),
		llm.TextDelta("lo"),
		llm.TextDelta(""),
	)

	got := drain(NewSnapshotter(src))

	want := []string{"Hel", "Hello", "Hello"}
	if len(got) != len(want) {
		t.Fatalf("emissions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("emission[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSnapshotterMixedDeltaKinds(t *testing.T) {
	src := llm.StreamFromDeltas(
		llm.TextDelta("foo"),
		llm.ResponseEvent{Delta: " bar"},
		llm.ResponseEvent{Delta: "", Done: true},
	)

	got := drain(NewSnapshotter(src))

	if got[len(got)-1] != "foo bar" {
		t.Errorf("final snapshot = %q, want %q", got[len(got)-1], "foo bar")
	}
}

func TestSnapshotterLastEmissionIsTotal(t *testing.T) {
	deltas := []llm.Delta{
		llm.TextDelta("a"), llm.TextDelta(""), llm.TextDelta("bc"),
		llm.ResponseEvent{Delta: "d"}, llm.TextDelta(""),
	}
	src := llm.StreamFromDeltas(deltas...)

	got := drain(NewSnapshotter(src))

	var total string
	for _, d := range deltas {
		total += d.Fragment()
	}
	if got[len(got)-1] != total {
		t.Errorf("final snapshot = %q, want %q", got[len(got)-1], total)
	}
	if len(got) != len(deltas) {
		t.Errorf("emission count = %d, want %d", len(got), len(deltas))
	}
}

func TestSnapshotterPropagatesStreamError(t *testing.T) {
	src, producer := llm.NewStream(2)
	producer.Send(llm.TextDelta("partial"))
	producer.Close(errors.New("backend down"))

	acc := NewSnapshotter(src)
	if !acc.Next() {
		t.Fatal("expected first snapshot")
	}
	if acc.Next() {
		t.Fatal("expected stream to end after error")
	}
	if acc.Err() == nil {
		t.Error("expected error to surface via Err")
	}
	if acc.Text() != "partial" {
		t.Errorf("Text = %q, want %q", acc.Text(), "partial")
	}
}

func TestStaticEmitsExactlyOnce(t *testing.T) {
	s := NewStatic("only value")

	got := drain(s)
	if len(got) != 1 || got[0] != "only value" {
		t.Errorf("emissions = %v, want exactly one", got)
	}
	if s.Err() != nil {
		t.Errorf("unexpected error: %v", s.Err())
	}
}

func TestSuffixedAppendsFinalSnapshot(t *testing.T) {
	src := llm.StreamFromDeltas(llm.TextDelta("Hel"), llm.TextDelta("lo"))
	s := NewSuffixed(NewSnapshotter(src), "\nSources: doc.pdf")

	got := drain(s)
	want := []string{"Hel", "Hello", "Hello\nSources: doc.pdf"}
	if len(got) != len(want) {
		t.Fatalf("emissions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("emission %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSuffixedEmptySuffixIsTransparent(t *testing.T) {
	src := llm.StreamFromDeltas(llm.TextDelta("only"))
	s := NewSuffixed(NewSnapshotter(src), "")

	got := drain(s)
	if len(got) != 1 || got[0] != "only" {
		t.Errorf("emissions = %v, want [only]", got)
	}
}

func TestSuffixedSkipsSuffixOnError(t *testing.T) {
	src, producer := llm.NewStream(1)
	producer.Close(errors.New("backend down"))

	s := NewSuffixed(NewSnapshotter(src), "\nSources: doc.pdf")
	if s.Next() {
		t.Fatal("expected no snapshots after immediate error")
	}
	if s.Err() == nil {
		t.Error("expected error to surface via Err")
	}
}

func TestSnapshotterCloseReleasesProducer(t *testing.T) {
	src, producer := llm.NewStream(1)
	producer.Send(llm.TextDelta("Hel"))

	snap := NewSnapshotter(src)
	if !snap.Next() {
		t.Fatal("expected a first snapshot")
	}

	result := make(chan bool, 1)
	go func() {
		producer.Send(llm.TextDelta("lo"))
		result <- producer.Send(llm.TextDelta("!"))
	}()

	select {
	case <-result:
		t.Fatal("producer outran a stalled consumer")
	case <-time.After(20 * time.Millisecond):
	}

	snap.Close()

	select {
	case ok := <-result:
		if ok {
			t.Error("producer kept sending after the consumer closed")
		}
	case <-time.After(time.Second):
		t.Fatal("producer still blocked after Close")
	}
}
