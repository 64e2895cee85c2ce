package narrative

import (
	"backrooms/db/models"
)

// StateSchemaVersion is stamped on every persisted snapshot. Bump it
// whenever the snapshot layout changes so resumed conversations are never
// silently decoded against the wrong shape.
const StateSchemaVersion = 1

// Role identifies which participant is speaking.
type Role string

const (
	RoleExplorer  Role = "explorer"
	RoleResponder Role = "responder"
)

// Turn is one history entry: who spoke and what was generated.
type Turn struct {
	Agent    Role
	Response string
}

// Focus is the current theme/tension pair. Free text by design.
type Focus struct {
	Theme   string
	Tension string
}

// State is the full narrative snapshot: the four narrative fields plus the
// conversation history. It is the unit persisted on the backroom record
// and restored for continuations.
type State struct {
	SchemaVersion int
	Stage         string
	Point         string
	Focus         Focus
	Signals       []string
	History       []Turn
}

// clone returns a deep copy so snapshots never alias engine-internal slices.
func (s State) clone() State {
	out := s
	out.Signals = append([]string(nil), s.Signals...)
	out.History = append([]Turn(nil), s.History...)
	return out
}

// Document converts the snapshot into its persisted form.
func (s State) Document() models.NarrativeStateDocument {
	history := make([]models.TurnDocument, 0, len(s.History))
	for _, turn := range s.History {
		history = append(history, models.TurnDocument{
			Agent:    string(turn.Agent),
			Response: turn.Response,
		})
	}
	return models.NarrativeStateDocument{
		SchemaVersion: s.SchemaVersion,
		Stage:         s.Stage,
		Point:         s.Point,
		Focus: models.NarrativeFocus{
			Theme:   s.Focus.Theme,
			Tension: s.Focus.Tension,
		},
		Signals: append([]string(nil), s.Signals...),
		History: history,
	}
}

// StateFromDocument restores a snapshot saved by Document.
func StateFromDocument(doc models.NarrativeStateDocument) State {
	history := make([]Turn, 0, len(doc.History))
	for _, turn := range doc.History {
		history = append(history, Turn{
			Agent:    Role(turn.Agent),
			Response: turn.Response,
		})
	}
	return State{
		SchemaVersion: doc.SchemaVersion,
		Stage:         doc.Stage,
		Point:         doc.Point,
		Focus: Focus{
			Theme:   doc.Focus.Theme,
			Tension: doc.Focus.Tension,
		},
		Signals: append([]string(nil), doc.Signals...),
		History: history,
	}
}
