package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	oldState := map[string]any{
		"status":      "open",
		"laborCharge": 100000,
		"comment":     "brake job",
	}
	newState := map[string]any{
		"status":      "in_progress",
		"laborCharge": 100000,
		"mechanicId":  "abc",
	}

	changes := Diff(oldState, newState)

	assert.Equal(t, map[string]any{"old": "open", "new": "in_progress"}, changes["status"])
	assert.Equal(t, map[string]any{"old": nil, "new": "abc"}, changes["mechanicId"])
	assert.Equal(t, map[string]any{"old": "brake job", "new": nil}, changes["comment"])
	assert.NotContains(t, changes, "laborCharge")
}

func TestDiffEmpty(t *testing.T) {
	state := map[string]any{"value": "7300"}

	assert.Empty(t, Diff(state, state))
	assert.Len(t, Diff(nil, state), 1)
}
