package checklist

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnswerNamespace is the storage prefix under which answer media lives.
// Deletion requests are filtered to this namespace so a caller-supplied
// deletion list can never reach arbitrary files.
const AnswerNamespace = "instruction_answers/"

// MergeImagePaths computes the new stored path list for an image or
// signature answer: decode the existing JSON list, drop explicitly deleted
// paths, append newly stored ones, and re-encode. An empty or non-list
// existing value is treated as an empty list.
func MergeImagePaths(existingJSON string, deleted, added []string) (string, error) {
	var paths []string
	if strings.TrimSpace(existingJSON) != "" {
		if err := json.Unmarshal([]byte(existingJSON), &paths); err != nil {
			paths = nil
		}
	}

	drop := make(map[string]bool, len(deleted))
	for _, p := range deleted {
		drop[p] = true
	}

	merged := make([]string, 0, len(paths)+len(added))
	for _, p := range paths {
		if !drop[p] {
			merged = append(merged, p)
		}
	}
	merged = append(merged, added...)

	out, err := json.Marshal(merged)
	if err != nil {
		return "", fmt.Errorf("checklist: encode image paths: %w", err)
	}
	return string(out), nil
}

// DeletableAnswerPaths filters a deletion list down to paths inside the
// answer media namespace.
func DeletableAnswerPaths(paths []string) []string {
	var ok []string
	for _, p := range paths {
		if strings.HasPrefix(p, AnswerNamespace) {
			ok = append(ok, p)
		}
	}
	return ok
}
