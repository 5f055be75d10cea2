// Package glob selects cited documents by doublestar pattern so a turn can
// be restricted to them.
package glob

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/ragchat"
)

// MaxChatSelection caps how many documents one turn may be restricted to.
const MaxChatSelection = 5

// Select returns the documents whose path or file name matches pattern,
// unique by id, in input order, capped at MaxChatSelection. A pattern that
// is a plain integer selects the document with that id. Patterns without
// a slash match the file name as well as the base of the document path.
func Select(docs []ragchat.DocumentRef, pattern string) ([]ragchat.DocumentRef, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}
	if id, err := strconv.Atoi(pattern); err == nil {
		for _, d := range docs {
			if d.ID == id {
				return []ragchat.DocumentRef{d}, nil
			}
		}
		return nil, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("glob: invalid pattern %q", pattern)
	}

	seen := make(map[int]bool)
	var out []ragchat.DocumentRef
	for _, d := range docs {
		if len(out) == MaxChatSelection {
			break
		}
		if seen[d.ID] || !matches(pattern, d) {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}
	return out, nil
}

// IDs returns the ids of docs in order.
func IDs(docs []ragchat.DocumentRef) []int {
	if len(docs) == 0 {
		return nil
	}
	ids := make([]int, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}

func matches(pattern string, d ragchat.DocumentRef) bool {
	candidates := []string{strings.TrimPrefix(d.DocumentPath, "/")}
	if !strings.Contains(pattern, "/") {
		candidates = append(candidates, d.FileName, path.Base(d.DocumentPath))
	}
	pattern = strings.TrimPrefix(pattern, "/")
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if ok, _ := doublestar.Match(pattern, c); ok {
			return true
		}
	}
	return false
}
