package sequencer

import (
	"regexp"
	"strings"
	"time"
)

// placeholderPattern matches {identifier} fragments. Malformed placeholders
// (unbalanced braces, bad identifiers) simply do not match.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// autoFilledKeys is the closed set of placeholders always derivable from the
// workshop itself. Every other key is manual and needs an operator value.
var autoFilledKeys = []string{"workshop_name", "date", "time"}

// EventContext supplies the auto-filled substitution values for one workshop
type EventContext struct {
	Name     string
	StartAt  time.Time
	Location *time.Location
}

// AutoValue returns the derived value for an auto-filled key. The key match
// is case-insensitive.
func (e EventContext) AutoValue(key string) (string, bool) {
	loc := e.Location
	if loc == nil {
		loc = time.UTC
	}
	switch strings.ToLower(key) {
	case "workshop_name":
		return e.Name, true
	case "date":
		return e.StartAt.In(loc).Format("02 Jan 2006"), true
	case "time":
		return e.StartAt.In(loc).Format("03:04 PM"), true
	}
	return "", false
}

// IsAutoFilled reports whether key belongs to the auto-filled set
func IsAutoFilled(key string) bool {
	for _, k := range autoFilledKeys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// ExtractVariables returns the unique placeholder keys found in content, in
// first-seen order.
func ExtractVariables(content string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		key := match[1]
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// CategorizeVariables partitions keys into auto-filled and manual, keeping
// the input order within each part.
func CategorizeVariables(keys []string) (autoFilled, manual []string) {
	for _, key := range keys {
		if IsAutoFilled(key) {
			autoFilled = append(autoFilled, key)
		} else {
			manual = append(manual, key)
		}
	}
	return autoFilled, manual
}

// ExtractSequenceVariables unions the manual keys of every template content
// across a sequence, in first-seen order. The gate prompts once for the whole
// run, not per step.
func ExtractSequenceVariables(contents []string) []string {
	seen := make(map[string]bool)
	var manual []string
	for _, content := range contents {
		_, stepManual := CategorizeVariables(ExtractVariables(content))
		for _, key := range stepManual {
			if !seen[key] {
				seen[key] = true
				manual = append(manual, key)
			}
		}
	}
	return manual
}

// RenderContent substitutes every placeholder occurrence in content.
// Auto-filled keys come from the event; manual keys come from manualValues
// and are only substituted when a non-empty value is present. Unresolved
// placeholders are left verbatim so the caller can surface them — the gate is
// responsible for never letting a production run reach this state.
func RenderContent(content string, event EventContext, manualValues map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(placeholder string) string {
		key := placeholder[1 : len(placeholder)-1]
		if value, ok := event.AutoValue(key); ok {
			return value
		}
		if value, ok := manualValues[key]; ok && value != "" {
			return value
		}
		return placeholder
	})
}
