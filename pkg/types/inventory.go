package types

// EventChange is fired after every accepted mutation with the current
// Document as payload.
const EventChange = "change"

// Handler observes Documents published by an Inventory. Handlers receive the
// inventory's own Document and must treat it as read-only.
type Handler func(Document)

// Inventory is the schema-governed virtual inventory.
type Inventory interface {
	// Initialize replaces the active Document with the one described by src.
	// Returns ErrMissingVersion, ErrUnsupportedVersion or ErrInvalidDocument
	// when the candidate is rejected; the previous state is kept.
	Initialize(src Source) error

	// AddRecord validates attrs against the record schema and stores it under
	// id, generating an id when id is empty. Returns the effective id.
	// Returns ErrInvalidRecord or ErrDuplicateID without changing the Document.
	AddRecord(attrs map[string]any, id string) (string, error)

	// DocumentText returns the interchange encoding of the active Document.
	DocumentText() (string, error)

	// On registers h for the named event. Handlers run in registration order.
	On(event string, h Handler)
}
