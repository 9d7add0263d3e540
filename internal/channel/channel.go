package channel

import (
	"context"

	"github.com/ebukadev08/notification-system/internal/models"
	"github.com/ebukadev08/notification-system/internal/resolver"
)

// Channel is a delivery transport the generic pipeline plugs into. Both
// workers run the same processor and retry machinery; only the Channel
// implementation differs.
type Channel interface {
	// Name identifies the channel ("email", "push") and prefixes send
	// failure reasons.
	Name() string

	// Recipient extracts the channel's delivery address from a resolved
	// user. An error here is a domain failure for the current attempt.
	Recipient(user resolver.User) (models.ResolvedRecipient, error)

	// Send delivers rendered content to the recipient. The extra mapping
	// carries the request variables for providers that accept a data
	// payload.
	Send(ctx context.Context, recipient models.ResolvedRecipient, content models.RenderedContent, extra map[string]interface{}) error
}
