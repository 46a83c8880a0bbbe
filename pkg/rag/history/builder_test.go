package history

import (
	"fmt"
	"strings"
	"testing"

	"doc-assistant-be/internal/constant"
	"doc-assistant-be/pkg/llm"
)

func TestBuildStripsSourcesBlock(t *testing.T) {
	transcript := [][2]string{
		{"Hi", "Hello world" + constant.SourcesSeparator + "1. doc.pdf"},
	}

	got := Build(transcript, "")

	want := []llm.Message{
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hello world"},
	}
	if len(got) != len(want) {
		t.Fatalf("message count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildPrependsSystemPrompt(t *testing.T) {
	transcript := [][2]string{{"Hi", "Hello"}}

	got := Build(transcript, "be helpful")

	if got[0].Role != "system" || got[0].Content != "be helpful" {
		t.Errorf("first message = %+v, want system prompt", got[0])
	}
	if len(got) != 3 {
		t.Errorf("message count = %d, want 3", len(got))
	}
}

func TestBuildEmptySystemPromptAddsNothing(t *testing.T) {
	got := Build([][2]string{{"Hi", "Hello"}}, "")
	for _, m := range got {
		if m.Role == "system" {
			t.Errorf("unexpected system message: %+v", m)
		}
	}
}

func TestBuildCapsToMostRecentMessages(t *testing.T) {
	var transcript [][2]string
	for i := 0; i < 15; i++ {
		transcript = append(transcript, [2]string{
			fmt.Sprintf("question %d", i),
			fmt.Sprintf("answer %d", i),
		})
	}

	got := Build(transcript, "sys")

	// 30 raw messages capped to 20, plus the system prompt on top
	if len(got) != constant.HistoryMessageCap+1 {
		t.Fatalf("message count = %d, want %d", len(got), constant.HistoryMessageCap+1)
	}
	if got[0].Role != "system" {
		t.Fatalf("first message role = %q, want system", got[0].Role)
	}
	// oldest messages dropped first: sequence starts at question 5
	if got[1].Content != "question 5" {
		t.Errorf("first retained message = %q, want %q", got[1].Content, "question 5")
	}
	if got[len(got)-1].Content != "answer 14" {
		t.Errorf("last message = %q, want %q", got[len(got)-1].Content, "answer 14")
	}
}

func TestBuildOutputNeverContainsSeparator(t *testing.T) {
	transcript := [][2]string{
		{"a", "x" + constant.SourcesSeparator + "src"},
		{"b", "plain"},
		{"c", constant.SourcesSeparator + "only sources"},
	}

	for _, m := range Build(transcript, "") {
		if strings.Contains(m.Content, constant.SourcesSeparator) {
			t.Errorf("message %q still contains the sources separator", m.Content)
		}
	}
}

func TestBuildLengthBound(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 50} {
		transcript := make([][2]string, n)
		got := Build(transcript, "sys")

		max := 2 * n
		if max > constant.HistoryMessageCap {
			max = constant.HistoryMessageCap
		}
		if len(got) != max+1 {
			t.Errorf("n=%d: message count = %d, want %d", n, len(got), max+1)
		}
	}
}
