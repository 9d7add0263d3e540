package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ebukadev08/notification-system/internal/models"
	"github.com/ebukadev08/notification-system/internal/resolver"
)

const defaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// Push delivers notifications via FCM. When no server key is configured the
// channel runs in demo mode: it logs what it would have sent and reports
// success, so the full pipeline can be exercised without provider
// credentials.
type Push struct {
	serverKey string
	endpoint  string
	client    *http.Client
	logger    *slog.Logger
}

// NewPush creates a Push channel. An empty serverKey enables demo mode.
func NewPush(serverKey string, logger *slog.Logger) *Push {
	return &Push{
		serverKey: serverKey,
		endpoint:  defaultFCMEndpoint,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (p *Push) Name() string { return "push" }

// Recipient requires the user record to carry a push token.
func (p *Push) Recipient(user resolver.User) (models.ResolvedRecipient, error) {
	if user.PushToken == "" {
		return models.ResolvedRecipient{}, errors.New("no_push_token")
	}
	return models.ResolvedRecipient{Address: user.PushToken}, nil
}

// Send posts the notification to FCM, or logs it in demo mode.
func (p *Push) Send(ctx context.Context, recipient models.ResolvedRecipient, content models.RenderedContent, extra map[string]interface{}) error {
	if p.serverKey == "" {
		p.logger.Info("fcm key missing, test mode: push would be sent",
			slog.String("token", recipient.Address),
			slog.String("title", content.Subject),
		)
		return nil
	}

	if extra == nil {
		extra = map[string]interface{}{}
	}
	payload, err := json.Marshal(map[string]interface{}{
		"to": recipient.Address,
		"notification": map[string]string{
			"title": content.Subject,
			"body":  content.Body,
		},
		"data": extra,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "key="+p.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fcm_error_%d_%s", resp.StatusCode, body)
	}
	return nil
}
