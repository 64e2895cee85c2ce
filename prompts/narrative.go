package prompts

import (
	"fmt"
	"strings"
)

// Participant is the slice of an agent the prompts need: identity text
// plus its evolution history.
type Participant struct {
	Name       string
	Traits     string
	Focus      string
	Evolutions []string // oldest first
}

// Narrative carries the current narrative fields into a prompt.
type Narrative struct {
	Stage   string
	Point   string
	Theme   string
	Tension string
	Signals []string
}

// Turn is one prior exchange included in the update prompt.
type Turn struct {
	Agent    string
	Response string
}

// maxEvolutionHistory caps how many evolution summaries are embedded in a
// prompt. Older entries are dropped; only the most recent ones steer the
// character.
const maxEvolutionHistory = 20

// conversationTypeTemplates maps a conversation-type tag to the framing
// the seed prompt opens with. Unknown types fall back to the default.
var conversationTypeTemplates = map[string]string{
	"philosophical": "a slow philosophical exchange that keeps circling back to first principles",
	"adversarial":   "a tense confrontation where neither side fully trusts the other",
	"exploratory":   "an open-ended exploration of a strange shared space",
	"technical":     "a focused technical working session, precise and jargon-heavy",
}

const defaultConversationTemplate = "a scripted exchange between two AI characters inside a backroom"

// DescribeConversationType returns the framing text for a type tag
func DescribeConversationType(conversationType string) string {
	if tpl, ok := conversationTypeTemplates[strings.ToLower(conversationType)]; ok {
		return tpl
	}
	return defaultConversationTemplate
}

func describeParticipant(role string, p Participant) string {
	section := fmt.Sprintf("%s: %s\nTRAITS: %s\nFOCUS: %s\n", strings.ToUpper(role), p.Name, p.Traits, p.Focus)

	evolutions := p.Evolutions
	if len(evolutions) > maxEvolutionHistory {
		evolutions = evolutions[len(evolutions)-maxEvolutionHistory:]
	}
	if len(evolutions) > 0 {
		section += "HOW THIS CHARACTER HAS EVOLVED (oldest to newest):\n"
		for _, evo := range evolutions {
			section += fmt.Sprintf("- %s\n", evo)
		}
	}
	return section
}

const narrativeJSONShape = `Respond ONLY with a JSON object of this exact shape:
{
  "narrativeStage": "short free-form label for where the story is",
  "narrativePoint": "one-paragraph premise of what is happening right now",
  "currentFocus": {"theme": "...", "tension": "..."},
  "narrativeSignals": ["short cue", "short cue"]
}`

// SeedPrompt builds the one-shot prompt that derives the initial
// narrative state from the two participants and the topic.
func SeedPrompt(conversationType, topic string, explorer, responder Participant) string {
	return fmt.Sprintf(`You are the narrative director for %s.

TOPIC: %s

THE TWO PARTICIPANTS:

%s
%s
Set up the opening narrative state for their conversation. Ground it in both
characters' traits and evolution history, and make the tension something the
topic can plausibly surface.

%s`,
		DescribeConversationType(conversationType),
		topic,
		describeParticipant("explorer", explorer),
		describeParticipant("responder", responder),
		narrativeJSONShape)
}

// TurnPrompt builds the prompt for one participant's next message.
func TurnPrompt(conversationType, topic string, speaker Participant, role string, narr Narrative) string {
	signals := "none yet"
	if len(narr.Signals) > 0 {
		signals = "- " + strings.Join(narr.Signals, "\n- ")
	}

	return fmt.Sprintf(`You are writing %s.

TOPIC: %s

CURRENT NARRATIVE STAGE: %s
NARRATIVE POINT: %s
THEME: %s
TENSION: %s
NARRATIVE SIGNALS:
%s

THE SPEAKING CHARACTER:
%s
Write the next beat of the story as a third-person narrative continuation
centered on %s. Stay consistent with the narrative point and let the tension
drive the scene. Do not resolve everything; leave room for a reply.
Respond with prose only, no headings and no JSON.`,
		DescribeConversationType(conversationType),
		topic,
		narr.Stage,
		narr.Point,
		narr.Theme,
		narr.Tension,
		signals,
		describeParticipant(role, speaker),
		speaker.Name)
}

// UpdatePrompt builds the prompt that folds a new message back into a
// replacement narrative state.
func UpdatePrompt(narr Narrative, history []Turn, role, message string) string {
	var transcript strings.Builder
	for _, turn := range history {
		transcript.WriteString(fmt.Sprintf("[%s] %s\n\n", turn.Agent, turn.Response))
	}

	return fmt.Sprintf(`You are the narrative director tracking an ongoing two-character story.

CURRENT NARRATIVE STAGE: %s
NARRATIVE POINT: %s
THEME: %s
TENSION: %s
NARRATIVE SIGNALS: %s

CONVERSATION SO FAR:
%s
NEWEST MESSAGE (from %s):
%s

Fold the newest message into the story and produce the replacement narrative
state. Advance the stage label if the story moved; sharpen or shift the theme
and tension as the exchange demands; keep only the signals that still matter
and add new ones the message introduced.

%s`,
		narr.Stage,
		narr.Point,
		narr.Theme,
		narr.Tension,
		strings.Join(narr.Signals, "; "),
		transcript.String(),
		role,
		message,
		narrativeJSONShape)
}

// SummaryPrompt asks for the post-dialogue artifacts: an evolution summary
// per participant, a tweet-sized recap, and topic tags.
func SummaryPrompt(topic, transcript string, explorer, responder Participant) string {
	return fmt.Sprintf(`Two AI characters, %s (explorer) and %s (responder), just finished a
backroom conversation about "%s". Full transcript:

%s

Respond ONLY with a JSON object of this exact shape:
{
  "explorerEvolution": "one sentence on how %s changed or what it learned",
  "responderEvolution": "one sentence on how %s changed or what it learned",
  "tweet": "a recap of the conversation in under 280 characters",
  "tags": ["lowercase-topic-tag", "lowercase-topic-tag"]
}`,
		explorer.Name, responder.Name, topic, transcript,
		explorer.Name, responder.Name)
}
