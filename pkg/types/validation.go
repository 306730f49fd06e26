package types

import "regexp"

// Compiled once at package initialization; id validation sits on the hot
// path of every inbound event.
var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidID checks identifier format for session, participant and breakout
// room ids. Identifiers end up inside hierarchical room names, so the
// character set deliberately excludes the ':' separator.
func IsValidID(id string) bool {
	if len(id) < 1 || len(id) > 64 {
		return false
	}
	return idRegex.MatchString(id)
}

// Validate ensures a session record meets all requirements.
func (s *Session) Validate() error {
	if len(s.Name) < 1 || len(s.Name) > 200 {
		return ErrInvalidSessionName
	}
	if !IsValidID(s.CreatedBy) {
		return ErrInvalidID
	}
	return nil
}
