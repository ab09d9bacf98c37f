package planner

import (
	"fmt"
	"strings"

	"github.com/showrunner-ai/showrunner/core"
)

// refPrefix marks a string argument value as a reference into the session
// history rather than a literal.
const refPrefix = "ref:"

// UnresolvedReferenceError reports a reference placeholder with no matching
// entry in the session history.
type UnresolvedReferenceError struct {
	Ref string
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q", e.Ref)
}

// RefIndex is an addressable view over committed turns. Media references are
// indexed under "turn/<i>/message/<j>/<slot>" addresses plus a "last/<slot>"
// alias for the most recent one, so models can point at prior outputs
// ("the video I uploaded") deterministically instead of by free text.
type RefIndex struct {
	slots map[string]string
}

// NewRefIndex builds an index over the given turns, oldest first.
func NewRefIndex(turns []core.Turn) *RefIndex {
	idx := &RefIndex{slots: make(map[string]string)}
	for ti, turn := range turns {
		for mi, msg := range turn.Messages {
			ref, ok := msg.Content.(core.MediaReference)
			if !ok {
				continue
			}
			idx.put(fmt.Sprintf("turn/%d/message/%d", ti, mi), ref)
			idx.put("last", ref)
		}
	}
	return idx
}

func (r *RefIndex) put(addr string, ref core.MediaReference) {
	if ref.MediaID != "" {
		r.slots[addr+"/media_id"] = ref.MediaID
	}
	if ref.URL != "" {
		r.slots[addr+"/url"] = ref.URL
	}
}

// Lookup resolves one address (without the "ref:" prefix).
func (r *RefIndex) Lookup(addr string) (string, bool) {
	v, ok := r.slots[addr]
	return v, ok
}

// Resolve returns a copy of args with every "ref:" string value replaced by
// its indexed value. Unresolved references fail with
// *UnresolvedReferenceError; non-string and literal values pass through.
func (r *RefIndex) Resolve(args map[string]any) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	resolved := make(map[string]any, len(args))
	for key, value := range args {
		s, ok := value.(string)
		if !ok || !strings.HasPrefix(s, refPrefix) {
			resolved[key] = value
			continue
		}
		addr := strings.TrimPrefix(s, refPrefix)
		v, ok := r.Lookup(addr)
		if !ok {
			return nil, &UnresolvedReferenceError{Ref: s}
		}
		resolved[key] = v
	}
	return resolved, nil
}
