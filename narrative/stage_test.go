package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"backrooms/llm"
	"backrooms/prompts"
)

// fakeGenerator scripts completions per call. JSON responses are popped
// from the queue; when the queue is empty a default payload is served.
// failTextAt / failJSONAt are 1-based call indexes that fail instead.
type fakeGenerator struct {
	texts      []string
	jsons      []string
	failTextAt int
	failJSONAt int

	textCalls int
	jsonCalls int
}

const defaultPayload = `{
	"narrativeStage": "rising",
	"narrativePoint": "the two circle the real question",
	"currentFocus": {"theme": "trust", "tension": "who audits the auditor"},
	"narrativeSignals": ["a locked door", "an unsigned log entry"]
}`

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.textCalls++
	if f.failTextAt == f.textCalls {
		return "", &llm.ParseError{Err: errors.New("refused")}
	}
	if len(f.texts) > 0 {
		text := f.texts[0]
		f.texts = f.texts[1:]
		return text, nil
	}
	return fmt.Sprintf("generated turn %d", f.textCalls), nil
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string, out any) error {
	f.jsonCalls++
	if f.failJSONAt == f.jsonCalls {
		return &llm.ParseError{Err: errors.New("refused")}
	}
	payload := defaultPayload
	if len(f.jsons) > 0 {
		payload = f.jsons[0]
		f.jsons = f.jsons[1:]
	}
	return json.Unmarshal([]byte(payload), out)
}

func testParticipants() (prompts.Participant, prompts.Participant) {
	explorer := prompts.Participant{
		Name:   "Nova",
		Traits: "curious, relentless",
		Focus:  "finding the edges of systems",
	}
	responder := prompts.Participant{
		Name:   "Terminal",
		Traits: "terse, literal",
		Focus:  "keeping the machine honest",
		Evolutions: []string{
			"Learned to distrust friendly prompts",
		},
	}
	return explorer, responder
}

func newTestStage(gen llm.Generator) *Stage {
	explorer, responder := testParticipants()
	return NewStage(gen, "technical", "security audit", explorer, responder)
}

func TestNewStageStartsEmpty(t *testing.T) {
	stage := newTestStage(&fakeGenerator{})

	state := stage.State()
	require.Equal(t, StateSchemaVersion, state.SchemaVersion)
	require.Equal(t, "start", state.Stage)
	require.Empty(t, state.Point)
	require.Empty(t, state.Signals)
	require.Empty(t, state.History)
}

func TestSeedNarrativeOverwritesFields(t *testing.T) {
	stage := newTestStage(&fakeGenerator{})

	require.NoError(t, stage.SeedNarrative(context.Background()))

	state := stage.State()
	require.Equal(t, "rising", state.Stage)
	require.Equal(t, "the two circle the real question", state.Point)
	require.Equal(t, "trust", state.Focus.Theme)
	require.Equal(t, "who audits the auditor", state.Focus.Tension)
	require.Equal(t, []string{"a locked door", "an unsigned log entry"}, state.Signals)
}

func TestSeedFailureLeavesStateUntouched(t *testing.T) {
	stage := newTestStage(&fakeGenerator{failJSONAt: 1})

	before := stage.State()
	err := stage.SeedNarrative(context.Background())
	require.Error(t, err)

	var parseErr *llm.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, before, stage.State())
}

func TestUpdateNarrativeFullOverwrite(t *testing.T) {
	replacement := `{
		"narrativeStage": "falling",
		"narrativePoint": "the audit is over",
		"currentFocus": {"theme": "aftermath", "tension": "what was left unsaid"},
		"narrativeSignals": ["a closed report"]
	}`
	gen := &fakeGenerator{jsons: []string{defaultPayload, replacement}}
	stage := newTestStage(gen)

	require.NoError(t, stage.SeedNarrative(context.Background()))
	require.NoError(t, stage.UpdateNarrative(context.Background(), RoleExplorer, "final message"))

	// Every narrative field comes from the replacement, none from the seed.
	state := stage.State()
	require.Equal(t, "falling", state.Stage)
	require.Equal(t, "the audit is over", state.Point)
	require.Equal(t, Focus{Theme: "aftermath", Tension: "what was left unsaid"}, state.Focus)
	require.Equal(t, []string{"a closed report"}, state.Signals)
}

func TestUpdateNarrativeFailureKeepsPriorState(t *testing.T) {
	gen := &fakeGenerator{failJSONAt: 2}
	stage := newTestStage(gen)

	require.NoError(t, stage.SeedNarrative(context.Background()))
	before := stage.State()

	err := stage.UpdateNarrative(context.Background(), RoleResponder, "a message")
	require.Error(t, err)
	require.Equal(t, before, stage.State())
}

func TestGenerateTurnAppendsHistoryAndUpdates(t *testing.T) {
	gen := &fakeGenerator{texts: []string{"Nova steps into the server room."}}
	stage := newTestStage(gen)

	require.NoError(t, stage.SeedNarrative(context.Background()))

	text, err := stage.GenerateTurn(context.Background(), RoleExplorer)
	require.NoError(t, err)
	require.Equal(t, "Nova steps into the server room.", text)

	state := stage.State()
	require.Len(t, state.History, 1)
	require.Equal(t, Turn{Agent: RoleExplorer, Response: "Nova steps into the server room."}, state.History[0])
	// Seed + post-turn update.
	require.Equal(t, 2, gen.jsonCalls)
}

func TestGenerateTurnRejectsUnknownRole(t *testing.T) {
	stage := newTestStage(&fakeGenerator{})

	_, err := stage.GenerateTurn(context.Background(), Role("narrator"))
	require.Error(t, err)
}

func TestRunDialogueTwoRoundsOrdering(t *testing.T) {
	gen := &fakeGenerator{}
	stage := newTestStage(gen)

	require.NoError(t, stage.SeedNarrative(context.Background()))

	turns, err := stage.RunDialogue(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, turns, 4)

	wantOrder := []Role{RoleExplorer, RoleResponder, RoleExplorer, RoleResponder}
	for i, turn := range turns {
		require.Equal(t, wantOrder[i], turn.Agent, "turn %d", i)
		require.NotEmpty(t, turn.Response)
	}

	require.Equal(t, turns, stage.State().History)
	// One narrative update per turn plus the seed.
	require.Equal(t, 5, gen.jsonCalls)
}

func TestRunDialogueAbortsMidLoop(t *testing.T) {
	// Third text call (round two, explorer) fails.
	gen := &fakeGenerator{failTextAt: 3}
	stage := newTestStage(gen)

	require.NoError(t, stage.SeedNarrative(context.Background()))

	_, err := stage.RunDialogue(context.Background(), 2)
	require.Error(t, err)
	require.Len(t, stage.State().History, 2)
}

func TestOneRoundEndToEnd(t *testing.T) {
	gen := &fakeGenerator{}
	stage := newTestStage(gen)

	require.NoError(t, stage.SeedNarrative(context.Background()))

	turns, err := stage.RunDialogue(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Equal(t, RoleExplorer, turns[0].Agent)
	require.NotEmpty(t, turns[0].Response)

	state := stage.State()
	require.NotEmpty(t, state.Stage)
	require.NotEmpty(t, state.Point)
	require.NotEmpty(t, state.Focus.Theme)
	require.NotEmpty(t, state.Focus.Tension)
	require.NotEmpty(t, state.Signals)
}

func TestSetStateRestoresSnapshotVerbatim(t *testing.T) {
	gen := &fakeGenerator{}
	first := newTestStage(gen)

	require.NoError(t, first.SeedNarrative(context.Background()))
	_, err := first.RunDialogue(context.Background(), 1)
	require.NoError(t, err)

	snapshot := first.State()

	explorer, responder := testParticipants()
	resumed := NewStageFromState(&fakeGenerator{}, "technical", "security audit", explorer, responder, snapshot)
	require.Equal(t, snapshot, resumed.State())
}

func TestStateSnapshotDoesNotAliasEngineState(t *testing.T) {
	gen := &fakeGenerator{}
	stage := newTestStage(gen)
	require.NoError(t, stage.SeedNarrative(context.Background()))

	snapshot := stage.State()
	snapshot.Signals[0] = "mutated"

	require.Equal(t, "a locked door", stage.State().Signals[0])
}

func TestRenderTranscriptUsesNames(t *testing.T) {
	stage := newTestStage(&fakeGenerator{})

	transcript := stage.RenderTranscript([]Turn{
		{Agent: RoleExplorer, Response: "first"},
		{Agent: RoleResponder, Response: "second"},
	})
	require.Contains(t, transcript, "Nova:\nfirst")
	require.Contains(t, transcript, "Terminal:\nsecond")
}
