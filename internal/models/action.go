package models

import "fmt"

// Action is a read-state change applied to entries, categories or feeds.
type Action int

const (
	ActionRead Action = iota
	ActionUnread
)

// String returns the Feedly markers action name.
func (a Action) String() string {
	switch a {
	case ActionRead:
		return "markAsRead"
	case ActionUnread:
		return "undoMarkAsRead"
	}
	return ""
}

// ParseAction accepts both the short ("read", "unread") and the wire names.
func ParseAction(s string) (Action, error) {
	switch s {
	case "read", "markAsRead":
		return ActionRead, nil
	case "unread", "undoMarkAsRead":
		return ActionUnread, nil
	}
	return 0, fmt.Errorf("unknown action: %q", s)
}

// MarshalText lets Action travel inside JSON task payloads.
func (a Action) MarshalText() ([]byte, error) {
	s := a.String()
	if s == "" {
		return nil, fmt.Errorf("unknown action: %d", int(a))
	}
	return []byte(s), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
