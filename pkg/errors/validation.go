package errors

import (
	"strings"
	"time"
	"unicode"
)

// maxScopeLength bounds project and dataset names, which become cache key
// segments and directory names.
const maxScopeLength = 128

// ValidateScopeName validates a project or dataset name used to partition
// caches. Empty names are allowed and mean "unscoped".
//
// Rejected names contain control characters, path separators, the ':' key
// separator or a ".." sequence, or exceed 128 characters.
func ValidateScopeName(kind, name string) error {
	if name == "" {
		return nil
	}
	if len(name) > maxScopeLength {
		return New(ErrCodeInvalidScope, "%s name too long (max %d characters)", kind, maxScopeLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidScope, "%s name contains invalid control characters", kind)
		}
	}
	for _, pattern := range []string{"..", "/", "\\", ":"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidScope, "%s name contains invalid characters: %q", kind, pattern)
		}
	}
	return nil
}

// ValidateLogicalID validates a node id given on the command line. Ids have
// the form "{Type}::{label}", e.g. "Agent::researcher", with a non-empty label
// and no control characters.
func ValidateLogicalID(id string) error {
	kind, label, ok := strings.Cut(id, "::")
	if !ok || kind == "" || label == "" {
		return New(ErrCodeInvalidNodeID, "node id %q must look like Type::label", id)
	}
	switch kind {
	case "Agent", "Tool", "LLM":
	default:
		return New(ErrCodeInvalidNodeID, "node id %q has unknown type %q (want Agent, Tool or LLM)", id, kind)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNodeID, "node id %q contains control characters", id)
		}
	}
	return nil
}

// ValidateWindow checks that a query window is well formed: when both bounds
// are set, until must be after since.
func ValidateWindow(since, until time.Time) error {
	if !since.IsZero() && !until.IsZero() && !until.After(since) {
		return New(ErrCodeInvalidInput, "window end %s must be after start %s",
			until.Format(time.RFC3339), since.Format(time.RFC3339))
	}
	return nil
}
