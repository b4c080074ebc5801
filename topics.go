package rolewatch

import (
	"strings"
)

// TopicMatcher matches event topics against subscription patterns.
//
// Topics are "<kind>.<action>", e.g. "role.assigned" or "permission.synced".
// Supported patterns:
//   - "*" matches every topic
//   - "role.*" matches every action on a kind
//   - "*.revoked" matches an action on every kind
//   - "role.assigned" matches exactly
type TopicMatcher struct{}

// NewTopicMatcher creates a new TopicMatcher.
func NewTopicMatcher() *TopicMatcher {
	return &TopicMatcher{}
}

// Match checks if a pattern matches a topic.
//
// Examples:
//
//	Match("*", "role.assigned")                // true
//	Match("role.*", "role.synced")             // true
//	Match("*.revoked", "permission.revoked")   // true
//	Match("role.assigned", "role.revoked")     // false
//	Match("permission.*", "role.assigned")     // false
func (tm *TopicMatcher) Match(pattern, topic string) bool {
	if pattern == topic || pattern == "*" {
		return true
	}

	patternParts := strings.Split(pattern, ".")
	topicParts := strings.Split(topic, ".")
	if len(patternParts) != len(topicParts) {
		return false
	}

	for i, pp := range patternParts {
		if pp == "*" {
			continue
		}
		if pp != topicParts[i] {
			return false
		}
	}

	return true
}

// MatchAny checks if any of the patterns match the topic.
func (tm *TopicMatcher) MatchAny(patterns []string, topic string) bool {
	for _, pattern := range patterns {
		if tm.Match(pattern, topic) {
			return true
		}
	}
	return false
}

// Validate checks if a subscription pattern is well formed.
// A valid pattern is "*" or "<kind|*>.<action|*>".
func (tm *TopicMatcher) Validate(pattern string) error {
	if pattern == "" {
		return NewError(ErrInvalidPattern, "pattern cannot be empty")
	}

	if pattern == "*" {
		return nil
	}

	parts := strings.Split(pattern, ".")
	if len(parts) != 2 {
		return NewError(ErrInvalidPattern, "pattern must have two parts (kind.action)")
	}

	if !oneOf(parts[0], "*", KindRole.String(), KindPermission.String()) {
		return NewError(ErrInvalidPattern, "unknown kind "+parts[0])
	}
	if !oneOf(parts[1], "*", string(ActionAssigned), string(ActionRevoked), string(ActionSynced)) {
		return NewError(ErrInvalidPattern, "unknown action "+parts[1])
	}

	return nil
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

// DefaultTopicMatcher is the default topic matcher instance.
var DefaultTopicMatcher = NewTopicMatcher()

// MatchTopic is a convenience function using the default matcher.
func MatchTopic(pattern, topic string) bool {
	return DefaultTopicMatcher.Match(pattern, topic)
}
