package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ecopower/backend/internal/infrastructure/config"
)

// FCMClient sends push notifications through the Firebase Cloud
// Messaging HTTP API
type FCMClient struct {
	serverKey string
	endpoint  string
	client    *http.Client
}

// NewFCMClient creates a client from the notify configuration
func NewFCMClient(cfg config.NotifyConfig) *FCMClient {
	return &FCMClient{
		serverKey: cfg.FCMServerKey,
		endpoint:  cfg.FCMEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

type fcmPayload struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Priority     string            `json:"priority"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// SendPush delivers one push notification to a device token
func (c *FCMClient) SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	if deviceToken == "" {
		return ErrNoDeviceToken
	}

	payload := fcmPayload{
		To: deviceToken,
		Notification: fcmNotification{
			Title: title,
			Body:  body,
			Sound: "default",
		},
		Data:     data,
		Priority: "high",
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: fcm status %d", ErrProviderRejected, resp.StatusCode)
	}

	var result fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding fcm response: %w", err)
	}
	if result.Success == 0 {
		return fmt.Errorf("%w: fcm reported %d failures", ErrProviderRejected, result.Failure)
	}
	return nil
}

// Ensure FCMClient implements the interface
var _ PushSender = (*FCMClient)(nil)
