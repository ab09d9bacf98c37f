package engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/showrunner-ai/showrunner/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turnWithText(input, output string) core.Turn {
	turn := core.NewTurn(input)
	if output != "" {
		turn.Messages = append(turn.Messages, core.NewTextMessage("assistant", output))
	}
	return turn
}

func TestBuildWindowEmptyHistory(t *testing.T) {
	w := BuildWindow(nil, 100, nil)
	assert.Empty(t, w.Turns)
	assert.False(t, w.Truncated)
}

func TestBuildWindowKeepsNewestTurnsFirstOut(t *testing.T) {
	turns := []core.Turn{
		turnWithText("first", strings.Repeat("a", 40)),
		turnWithText("second", strings.Repeat("b", 40)),
		turnWithText("third", strings.Repeat("c", 40)),
	}

	w := BuildWindow(turns, 100, nil)
	require.Len(t, w.Turns, 2)
	assert.Equal(t, "second", w.Turns[0].Input)
	assert.Equal(t, "third", w.Turns[1].Input)
	assert.False(t, w.Truncated)
}

func TestBuildWindowNewestNeverDropped(t *testing.T) {
	turns := []core.Turn{
		turnWithText("old", "short"),
		turnWithText("newest question", strings.Repeat("x", 500)),
	}

	w := BuildWindow(turns, 100, nil)
	require.Len(t, w.Turns, 1)
	assert.Equal(t, "newest question", w.Turns[0].Input)
	assert.True(t, w.Truncated)
}

func TestDefaultTruncationDropsOldestMessagesFirst(t *testing.T) {
	turn := core.NewTurn("question")
	turn.Messages = append(turn.Messages,
		core.NewTextMessage("a", strings.Repeat("1", 60)),
		core.NewTextMessage("b", "kept"),
	)

	trimmed := DefaultTruncation(turn, 40)
	require.Len(t, trimmed.Messages, 1)
	text, ok := trimmed.Messages[0].Content.(core.TextContent)
	require.True(t, ok)
	assert.Equal(t, "kept", text.Text)

	// The original turn is untouched.
	assert.Len(t, turn.Messages, 2)
}

func TestDefaultTruncationClipsInputAsLastResort(t *testing.T) {
	turn := core.NewTurn(strings.Repeat("q", 200))
	trimmed := DefaultTruncation(turn, 50)
	assert.Len(t, trimmed.Input, 50)
}

func TestDefaultTruncationClipsOnRuneBoundary(t *testing.T) {
	// Each é is two bytes; a budget of 5 lands mid-rune.
	turn := core.NewTurn(strings.Repeat("é", 100))
	trimmed := DefaultTruncation(turn, 5)
	assert.True(t, utf8.ValidString(trimmed.Input))
	assert.Equal(t, 4, len(trimmed.Input))
}
