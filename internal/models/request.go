package models

// DeliveryRequest is the message body carried on the work queues. It is
// produced by the gateway and travels verbatim through retries, with only
// Attempt incremented on each republish.
type DeliveryRequest struct {
	RequestID    string                 `json:"request_id"`
	UserID       string                 `json:"user_id"`
	TemplateCode string                 `json:"template_code"`
	Variables    map[string]interface{} `json:"variables"`
	Channel      string                 `json:"channel,omitempty"`

	// Attempt counts how many times this request has been handed to a
	// worker. Zero on first delivery; the field is absent from freshly
	// published messages and defaults accordingly.
	Attempt int `json:"_attempt"`
}

// ResolvedRecipient is the channel-specific delivery address for one attempt.
// Derived from the user service response, never persisted.
type ResolvedRecipient struct {
	Address string
}

// RenderedContent is the subject/title and body produced by the template
// service for one attempt.
type RenderedContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
