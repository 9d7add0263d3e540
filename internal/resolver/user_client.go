package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// User is the delivery-relevant slice of the user service response.
type User struct {
	Email     string `json:"email"`
	PushToken string `json:"push_token"`
}

// UserClient fetches recipient identity from the user service.
type UserClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewUserClient creates a new UserClient.
func NewUserClient(baseURL string, timeout time.Duration) *UserClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &UserClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "user-service",
		}),
	}
}

// Lookup retrieves the user record for the given ID. A non-200 response or an
// open circuit breaker is an error for this attempt; retrying is the retry
// coordinator's job, not the client's.
func (c *UserClient) Lookup(ctx context.Context, userID string) (User, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.lookup(ctx, userID)
	})
	if err != nil {
		return User{}, err
	}
	return result.(User), nil
}

func (c *UserClient) lookup(ctx context.Context, userID string) (User, error) {
	path := fmt.Sprintf("%s/api/v1/users/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return User{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return User{}, fmt.Errorf("user service returned %d: %s", resp.StatusCode, body)
	}

	var envelope struct {
		Data User `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return User{}, err
	}
	return envelope.Data, nil
}
