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

// WhatsappClient posts text messages to a WhatsApp business API
// gateway. The endpoint is provider-specific and comes from config.
type WhatsappClient struct {
	endpoint string
	apiKey   string
	sender   string
	client   *http.Client
}

// NewWhatsappClient creates a client from the notify configuration
func NewWhatsappClient(cfg config.NotifyConfig) *WhatsappClient {
	return &WhatsappClient{
		endpoint: cfg.WhatsappEndpoint,
		apiKey:   cfg.WhatsappAPIKey,
		sender:   cfg.WhatsappSender,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type whatsappPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// SendWhatsapp delivers one text message
func (c *WhatsappClient) SendWhatsapp(ctx context.Context, phone, message string) error {
	if phone == "" {
		return ErrNoRecipientAddress
	}
	if c.endpoint == "" {
		return fmt.Errorf("%w: whatsapp gateway not configured", ErrProviderRejected)
	}

	encoded, err := json.Marshal(whatsappPayload{
		From: c.sender,
		To:   phone,
		Body: message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: whatsapp status %d", ErrProviderRejected, resp.StatusCode)
	}
	return nil
}

// Ensure WhatsappClient implements the interface
var _ WhatsappSender = (*WhatsappClient)(nil)
