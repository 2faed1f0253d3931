package quote

import "github.com/google/uuid"

// Session is the single active captured-selection record. RawText holds
// the fully resolved semantic text (math source, Markdown tables);
// DisplayText the plain visual text for the compact indicator. At most
// one session exists at a time.
type Session struct {
	ID          uuid.UUID
	RawText     string
	DisplayText string
}

func newSession(raw, display string) *Session {
	return &Session{ID: uuid.New(), RawText: raw, DisplayText: display}
}
