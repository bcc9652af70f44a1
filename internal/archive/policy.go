package archive

import (
	"fmt"
	"strings"
)

// ReplacePolicy decides what happens to the previous processed copy when a
// file is archived again under a new name.
type ReplacePolicy string

const (
	// PolicyKeep leaves earlier copies in place.
	PolicyKeep ReplacePolicy = "keep"
	// PolicyRemove deletes the previous copy once the new one is written.
	PolicyRemove ReplacePolicy = "remove"
)

// ParseReplacePolicy validates a PROCESSED_REPLACE_POLICY value. Empty means keep.
func ParseReplacePolicy(value string) (ReplacePolicy, error) {
	switch p := ReplacePolicy(strings.ToLower(strings.TrimSpace(value))); p {
	case "", PolicyKeep:
		return PolicyKeep, nil
	case PolicyRemove:
		return PolicyRemove, nil
	default:
		return "", fmt.Errorf("invalid replace policy %q (want keep or remove)", value)
	}
}
