package handlers

import (
	"testing"

	"backrooms/db/models"
)

func TestWinningOption(t *testing.T) {
	tests := []struct {
		name     string
		options  []string
		votes    map[string]int
		expected string
	}{
		{
			name:     "Clear winner",
			options:  []string{"go deeper", "turn back"},
			votes:    map[string]int{"go deeper": 3, "turn back": 7},
			expected: "turn back",
		},
		{
			name:     "Tie goes to first listed option",
			options:  []string{"go deeper", "turn back"},
			votes:    map[string]int{"go deeper": 5, "turn back": 5},
			expected: "go deeper",
		},
		{
			name:     "No votes at all",
			options:  []string{"go deeper", "turn back", "wait"},
			votes:    map[string]int{},
			expected: "go deeper",
		},
		{
			name:     "Option missing from tally counts as zero",
			options:  []string{"go deeper", "turn back"},
			votes:    map[string]int{"turn back": 1},
			expected: "turn back",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poll := &models.Poll{Options: tt.options, Votes: tt.votes}
			if got := winningOption(poll); got != tt.expected {
				t.Errorf("winningOption() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFindPoll(t *testing.T) {
	backroom := &models.BackroomDocument{
		Polls: []models.Poll{
			{ID: "poll-1", Question: "first"},
			{ID: "poll-2", Question: "second"},
		},
	}

	if poll := findPoll(backroom, "poll-2"); poll == nil || poll.Question != "second" {
		t.Errorf("findPoll(poll-2) = %v, want second poll", poll)
	}
	if poll := findPoll(backroom, "poll-9"); poll != nil {
		t.Errorf("findPoll(poll-9) = %v, want nil", poll)
	}
}

func TestContainsOption(t *testing.T) {
	options := []string{"go deeper", "turn back"}

	if !containsOption(options, "go deeper") {
		t.Error("expected option to be found")
	}
	if containsOption(options, "Go Deeper") {
		t.Error("option matching should be exact")
	}
}
