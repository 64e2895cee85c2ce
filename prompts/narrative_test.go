package prompts

import (
	"fmt"
	"strings"
	"testing"
)

func TestDescribeConversationType(t *testing.T) {
	tests := []struct {
		name             string
		conversationType string
		wantDefault      bool
	}{
		{name: "Known type", conversationType: "adversarial", wantDefault: false},
		{name: "Known type mixed case", conversationType: "Philosophical", wantDefault: false},
		{name: "Unknown type", conversationType: "interpretive-dance", wantDefault: true},
		{name: "Empty type", conversationType: "", wantDefault: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DescribeConversationType(tt.conversationType)
			isDefault := result == defaultConversationTemplate
			if isDefault != tt.wantDefault {
				t.Errorf("DescribeConversationType(%q) = %q, wantDefault=%v", tt.conversationType, result, tt.wantDefault)
			}
		})
	}
}

func TestSeedPromptEmbedsParticipantsAndTopic(t *testing.T) {
	explorer := Participant{Name: "Nova", Traits: "curious", Focus: "edges of systems"}
	responder := Participant{Name: "Terminal", Traits: "terse", Focus: "machine honesty"}

	prompt := SeedPrompt("technical", "security audit", explorer, responder)

	for _, want := range []string{"Nova", "Terminal", "security audit", "narrativeStage", "currentFocus"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("seed prompt missing %q", want)
		}
	}
}

func TestSeedPromptCapsEvolutionHistory(t *testing.T) {
	evolutions := make([]string, 25)
	for i := range evolutions {
		evolutions[i] = fmt.Sprintf("evolution entry %02d", i)
	}
	explorer := Participant{Name: "Nova", Evolutions: evolutions}
	responder := Participant{Name: "Terminal"}

	prompt := SeedPrompt("technical", "security audit", explorer, responder)

	if strings.Contains(prompt, "evolution entry 04") {
		t.Error("prompt includes evolution older than the cap")
	}
	if !strings.Contains(prompt, "evolution entry 05") {
		t.Error("prompt missing oldest entry within the cap")
	}
	if !strings.Contains(prompt, "evolution entry 24") {
		t.Error("prompt missing newest evolution entry")
	}
}

func TestTurnPromptEmbedsNarrativeState(t *testing.T) {
	speaker := Participant{Name: "Nova", Traits: "curious"}
	narr := Narrative{
		Stage:   "rising",
		Point:   "the audit narrows",
		Theme:   "trust",
		Tension: "who audits the auditor",
		Signals: []string{"a locked door"},
	}

	prompt := TurnPrompt("technical", "security audit", speaker, "explorer", narr)

	for _, want := range []string{"rising", "the audit narrows", "trust", "who audits the auditor", "a locked door", "Nova"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("turn prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "narrativeStage") {
		t.Error("turn prompt should ask for prose, not the JSON shape")
	}
}

func TestUpdatePromptIncludesHistoryAndNewMessage(t *testing.T) {
	narr := Narrative{Stage: "rising", Point: "premise", Theme: "trust", Tension: "doubt"}
	history := []Turn{
		{Agent: "explorer", Response: "first beat"},
		{Agent: "responder", Response: "second beat"},
	}

	prompt := UpdatePrompt(narr, history, "responder", "the newest beat")

	for _, want := range []string{"first beat", "second beat", "the newest beat", "narrativeSignals"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("update prompt missing %q", want)
		}
	}
}

func TestSummaryPromptNamesBothAgents(t *testing.T) {
	explorer := Participant{Name: "Nova"}
	responder := Participant{Name: "Terminal"}

	prompt := SummaryPrompt("security audit", "Nova:\nhello\n", explorer, responder)

	for _, want := range []string{"Nova", "Terminal", "security audit", "explorerEvolution", "tweet"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("summary prompt missing %q", want)
		}
	}
}
