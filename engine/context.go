package engine

import (
	"unicode/utf8"

	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/llm"
)

// Window is the bounded context handed to the planner: the most recent turns
// that fit the budget, oldest first.
type Window struct {
	Turns []core.Turn
	// Truncated is set when the newest turn alone exceeded the budget and had
	// to be trimmed rather than dropped.
	Truncated bool
}

// TruncationPolicy trims a single turn to fit within budget characters. It is
// applied only to the newest turn, which is never dropped entirely.
type TruncationPolicy func(turn core.Turn, budget int) core.Turn

// DefaultTruncation drops the turn's oldest messages until it fits, then
// clips the input text as a last resort.
func DefaultTruncation(turn core.Turn, budget int) core.Turn {
	trimmed := turn
	trimmed.Messages = append([]core.Message(nil), turn.Messages...)
	for len(trimmed.Messages) > 0 && turnCost(trimmed) > budget {
		trimmed.Messages = trimmed.Messages[1:]
	}
	if turnCost(trimmed) > budget && budget > 0 && len(trimmed.Input) > budget {
		trimmed.Input = clipRunes(trimmed.Input, budget)
	}
	return trimmed
}

// clipRunes cuts s to at most n bytes without splitting a multi-byte rune.
func clipRunes(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// BuildWindow selects the most recent turns whose combined cost fits within
// budget characters. The newest turn is always included; when it alone
// exceeds the budget it is truncated via the policy and flagged, never
// dropped.
func BuildWindow(turns []core.Turn, budget int, truncate TruncationPolicy) Window {
	if len(turns) == 0 {
		return Window{}
	}
	if truncate == nil {
		truncate = DefaultTruncation
	}

	newest := turns[len(turns)-1]
	newestCost := turnCost(newest)
	if newestCost > budget {
		return Window{Turns: []core.Turn{truncate(newest, budget)}, Truncated: true}
	}

	// Walk backwards from the newest turn, adding older turns while they fit.
	selected := []core.Turn{newest}
	remaining := budget - newestCost
	for i := len(turns) - 2; i >= 0; i-- {
		cost := turnCost(turns[i])
		if cost > remaining {
			break
		}
		selected = append(selected, turns[i])
		remaining -= cost
	}

	// Restore oldest-first ordering.
	for l, r := 0, len(selected)-1; l < r; l, r = l+1, r-1 {
		selected[l], selected[r] = selected[r], selected[l]
	}
	return Window{Turns: selected}
}

// turnCost approximates a turn's context footprint as the character length of
// its input plus rendered output.
func turnCost(turn core.Turn) int {
	cost := len(turn.Input)
	for _, msg := range turn.Messages {
		cost += len(llm.RenderContent(msg.Content))
	}
	return cost
}
