// Package transport abstracts the messaging channel so the conversation
// engine can be exercised without a live connection.
package transport

import "context"

// Button is one selectable option attached to an outbound message. Data
// is delivered back as the text of a synthetic inbound event when the
// subject presses it.
type Button struct {
	Label string
	Data  string
}

// Outbound is a single message addressed to a subject. Engine
// transitions return ordered slices of these; the dispatcher sends them
// in order and owns the timing.
type Outbound struct {
	SubjectID string
	Text      string
	Buttons   [][]Button
}

// TextEvent is an inbound free-text message or command.
type TextEvent struct {
	SubjectID string
	Username  string
	FirstName string
	LastName  string
	Text      string
}

// DocumentEvent is an inbound file upload. Content is retrieved lazily
// through FileURL.
type DocumentEvent struct {
	TextEvent
	FileID   string
	FileName string
	FileSize int64
	MIMEType string
}

// TextHandler consumes one inbound text event and returns the ordered
// outbound messages of the transition.
type TextHandler func(ctx context.Context, ev TextEvent) []Outbound

// DocumentHandler consumes one inbound document event and returns the
// ordered outbound messages of the transition.
type DocumentHandler func(ctx context.Context, ev DocumentEvent) []Outbound

// Transport is the injected messaging channel.
type Transport interface {
	// Send delivers one outbound message.
	Send(ctx context.Context, msg Outbound) error

	// OnTextMessage registers the handler for inbound text. Must be
	// called before Run.
	OnTextMessage(h TextHandler)

	// OnDocumentMessage registers the handler for inbound documents.
	OnDocumentMessage(h DocumentHandler)

	// FileURL resolves a file identifier to a downloadable link.
	FileURL(ctx context.Context, fileID string) (string, error)

	// Run blocks, receiving events until ctx is cancelled.
	Run(ctx context.Context) error
}
