package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// RelayClient posts bookings to the notification relay endpoint.
type RelayClient struct {
	url        string
	contact    Contact
	httpClient *http.Client
	logger     *logging.Logger
}

// NewRelayClient returns a Notifier that POSTs to url.
func NewRelayClient(url string, contact Contact, logger *logging.Logger) *RelayClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &RelayClient{
		url:     strings.TrimSpace(url),
		contact: contact,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

var _ Notifier = (*RelayClient)(nil)

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NotifyBooking sends req and reports any non-success answer as an error.
func (c *RelayClient) NotifyBooking(ctx context.Context, req BookingRequest) error {
	if c.url == "" {
		return errors.New("booking: relay url not configured")
	}
	body, err := json.Marshal(NewPayload(req, c.contact))
	if err != nil {
		return fmt.Errorf("booking: encode payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("booking: build relay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("booking: relay request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed relayResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != "" {
			return fmt.Errorf("booking: relay returned status %d: %s", resp.StatusCode, parsed.Error)
		}
		return fmt.Errorf("booking: relay returned status %d", resp.StatusCode)
	}
	if len(raw) > 0 && !parsed.Success {
		return fmt.Errorf("booking: relay rejected booking: %s", parsed.Error)
	}

	c.logger.Debug("booking relayed", "booking_id", req.ID, "status", resp.StatusCode)
	return nil
}
