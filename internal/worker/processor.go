package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ebukadev08/notification-system/internal/channel"
	"github.com/ebukadev08/notification-system/internal/models"
	"github.com/ebukadev08/notification-system/internal/resolver"
)

// UserLookup resolves recipient identity for a user ID.
type UserLookup interface {
	Lookup(ctx context.Context, userID string) (resolver.User, error)
}

// TemplateRenderer renders template content for a request.
type TemplateRenderer interface {
	Render(ctx context.Context, templateCode string, variables map[string]interface{}) (models.RenderedContent, error)
}

// Processor runs the resolve -> render -> deliver pipeline for one message.
// Pure orchestration: no broker access, and every failure path ends in a
// Failed outcome rather than an escaped error.
type Processor struct {
	users     UserLookup
	templates TemplateRenderer
	channel   channel.Channel
	logger    *slog.Logger
}

// NewProcessor creates a Processor around the given channel.
func NewProcessor(users UserLookup, templates TemplateRenderer, ch channel.Channel, logger *slog.Logger) *Processor {
	return &Processor{
		users:     users,
		templates: templates,
		channel:   ch,
		logger:    logger,
	}
}

// Process executes one delivery attempt and reports its outcome.
func (p *Processor) Process(ctx context.Context, req models.DeliveryRequest) models.Outcome {
	user, err := p.users.Lookup(ctx, req.UserID)
	if err != nil {
		return models.Failure(fmt.Sprintf("user_lookup_failed: %v", err))
	}

	recipient, err := p.channel.Recipient(user)
	if err != nil {
		return models.Failure(err.Error())
	}

	content, err := p.templates.Render(ctx, req.TemplateCode, req.Variables)
	if err != nil {
		return models.Failure(fmt.Sprintf("template_render_failed: %v", err))
	}

	if err := p.channel.Send(ctx, recipient, content, req.Variables); err != nil {
		return models.Failure(fmt.Sprintf("%s_send_failed: %v", p.channel.Name(), err))
	}

	p.logger.Debug("delivery succeeded",
		slog.String("request_id", req.RequestID),
		slog.String("channel", p.channel.Name()),
	)
	return models.DeliveredOutcome()
}
