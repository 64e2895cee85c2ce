// Package narrative drives a fixed-length, alternating two-party dialogue.
// A Stage holds a small amount of mutable narrative state that is
// re-derived from the model after every message rather than computed once.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"backrooms/llm"
	"backrooms/prompts"
)

// Stage is the dialogue engine for one conversation. Construct one per
// request; the only state that outlives it is the snapshot the caller
// persists.
type Stage struct {
	gen              llm.Generator
	conversationType string
	topic            string
	explorer         prompts.Participant
	responder        prompts.Participant
	state            State
}

// NewStage builds an engine with empty narrative state.
func NewStage(gen llm.Generator, conversationType, topic string, explorer, responder prompts.Participant) *Stage {
	return &Stage{
		gen:              gen,
		conversationType: conversationType,
		topic:            topic,
		explorer:         explorer,
		responder:        responder,
		state: State{
			SchemaVersion: StateSchemaVersion,
			Stage:         "start",
		},
	}
}

// NewStageFromState builds an engine resuming a prior snapshot verbatim,
// used when a backroom continues after a poll resolves.
func NewStageFromState(gen llm.Generator, conversationType, topic string, explorer, responder prompts.Participant, prior State) *Stage {
	stage := NewStage(gen, conversationType, topic, explorer, responder)
	stage.SetState(prior)
	return stage
}

// narrativePayload is the JSON shape the model is asked for when seeding
// or updating narrative state.
type narrativePayload struct {
	Stage string `json:"narrativeStage"`
	Point string `json:"narrativePoint"`
	Focus struct {
		Theme   string `json:"theme"`
		Tension string `json:"tension"`
	} `json:"currentFocus"`
	Signals []string `json:"narrativeSignals"`
}

func (s *Stage) applyPayload(payload narrativePayload) {
	s.state.Stage = payload.Stage
	s.state.Point = payload.Point
	s.state.Focus = Focus{Theme: payload.Focus.Theme, Tension: payload.Focus.Tension}
	s.state.Signals = payload.Signals
}

// SeedNarrative derives the opening narrative state from the topic and
// both participants. On failure the state is left exactly as it was and
// the caller must not proceed to turn generation.
func (s *Stage) SeedNarrative(ctx context.Context) error {
	prompt := prompts.SeedPrompt(s.conversationType, s.topic, s.explorer, s.responder)

	var payload narrativePayload
	if err := s.gen.GenerateJSON(ctx, prompt, &payload); err != nil {
		return fmt.Errorf("seed narrative: %w", err)
	}

	s.applyPayload(payload)
	return nil
}

func (s *Stage) participant(speaker Role) (prompts.Participant, error) {
	switch speaker {
	case RoleExplorer:
		return s.explorer, nil
	case RoleResponder:
		return s.responder, nil
	default:
		return prompts.Participant{}, fmt.Errorf("unknown speaker role %q", speaker)
	}
}

func (s *Stage) promptNarrative() prompts.Narrative {
	return prompts.Narrative{
		Stage:   s.state.Stage,
		Point:   s.state.Point,
		Theme:   s.state.Focus.Theme,
		Tension: s.state.Focus.Tension,
		Signals: s.state.Signals,
	}
}

// GenerateTurn produces the next message for the given speaker, appends it
// to the history, then folds it back into the narrative state. Any failure
// aborts the turn; the engine never retries.
func (s *Stage) GenerateTurn(ctx context.Context, speaker Role) (string, error) {
	participant, err := s.participant(speaker)
	if err != nil {
		return "", err
	}

	prompt := prompts.TurnPrompt(s.conversationType, s.topic, participant, string(speaker), s.promptNarrative())
	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate %s turn: %w", speaker, err)
	}

	s.state.History = append(s.state.History, Turn{Agent: speaker, Response: text})

	if err := s.UpdateNarrative(ctx, speaker, text); err != nil {
		return "", err
	}
	return text, nil
}

// UpdateNarrative asks the model for a replacement narrative state given
// the full history plus the new message. Success replaces all four fields
// outright; failure leaves the prior state byte-for-byte intact.
func (s *Stage) UpdateNarrative(ctx context.Context, speaker Role, message string) error {
	history := make([]prompts.Turn, 0, len(s.state.History))
	for _, turn := range s.state.History {
		history = append(history, prompts.Turn{Agent: string(turn.Agent), Response: turn.Response})
	}

	prompt := prompts.UpdatePrompt(s.promptNarrative(), history, string(speaker), message)

	var payload narrativePayload
	if err := s.gen.GenerateJSON(ctx, prompt, &payload); err != nil {
		return fmt.Errorf("update narrative: %w", err)
	}

	s.applyPayload(payload)
	return nil
}

// RunDialogue alternates explorer and responder turns for the given number
// of rounds (one message per party per round) and returns the turns it
// added, in order. Round count is the only stopping rule.
func (s *Stage) RunDialogue(ctx context.Context, rounds int) ([]Turn, error) {
	start := len(s.state.History)

	for i := 0; i < rounds; i++ {
		if _, err := s.GenerateTurn(ctx, RoleExplorer); err != nil {
			return nil, err
		}
		if _, err := s.GenerateTurn(ctx, RoleResponder); err != nil {
			return nil, err
		}
	}

	return append([]Turn(nil), s.state.History[start:]...), nil
}

// State returns a snapshot of the current narrative state.
func (s *Stage) State() State {
	return s.state.clone()
}

// SetState restores a snapshot, replacing all narrative fields and the
// conversation history verbatim.
func (s *Stage) SetState(state State) {
	s.state = state.clone()
	if s.state.SchemaVersion == 0 {
		s.state.SchemaVersion = StateSchemaVersion
	}
}

// RenderTranscript formats turns as readable transcript text, resolving
// roles to participant names.
func (s *Stage) RenderTranscript(turns []Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		name := s.explorer.Name
		if turn.Agent == RoleResponder {
			name = s.responder.Name
		}
		b.WriteString(fmt.Sprintf("%s:\n%s\n\n", name, turn.Response))
	}
	return b.String()
}
