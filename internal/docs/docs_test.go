package docs

import (
	"strings"
	"testing"
)

func TestTopics_SortedAndReadable(t *testing.T) {
	t.Parallel()

	topics := Topics()
	if len(topics) == 0 {
		t.Fatalf("expected embedded topics")
	}
	for i := 1; i < len(topics); i++ {
		if topics[i-1] > topics[i] {
			t.Fatalf("expected sorted topics, got %v", topics)
		}
	}
	for _, topic := range topics {
		body, ok := Get(topic)
		if !ok || !strings.HasPrefix(body, "# ") {
			t.Fatalf("expected markdown body for %q", topic)
		}
	}
}

func TestGet_CaseInsensitiveAndUnknown(t *testing.T) {
	t.Parallel()

	if _, ok := Get("ACTIONS"); !ok {
		t.Fatalf("expected case-insensitive lookup")
	}
	for _, topic := range []string{"", "nope", "../docs"} {
		if _, ok := Get(topic); ok {
			t.Fatalf("expected %q to be unknown", topic)
		}
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	if got := Summary("tabs"); got != "Tabs and active documents" {
		t.Fatalf("unexpected summary: %q", got)
	}
	if got := Summary("nope"); got != "" {
		t.Fatalf("expected empty summary for unknown topic, got %q", got)
	}
}
