package narrative

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateDocumentRoundTrip(t *testing.T) {
	state := State{
		SchemaVersion: StateSchemaVersion,
		Stage:         "climax",
		Point:         "the audit found something",
		Focus:         Focus{Theme: "exposure", Tension: "admit or bury it"},
		Signals:       []string{"a flashing cursor"},
		History: []Turn{
			{Agent: RoleExplorer, Response: "look at this"},
			{Agent: RoleResponder, Response: "I see it"},
		},
	}

	restored := StateFromDocument(state.Document())
	require.Equal(t, state, restored)
}

func TestSetStateStampsMissingSchemaVersion(t *testing.T) {
	// Snapshots written before versioning decode with a zero version;
	// restoring one adopts the current version rather than keeping zero.
	stage := newTestStage(&fakeGenerator{})
	stage.SetState(State{Stage: "middle"})

	state := stage.State()
	require.Equal(t, StateSchemaVersion, state.SchemaVersion)
	require.Equal(t, "middle", state.Stage)
}
