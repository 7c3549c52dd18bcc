package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Event types published on the queue and forwarded to the webhook.
const (
	EventBooked    = "appointment.booked"
	EventCompleted = "appointment.completed"
	EventCancelled = "appointment.cancelled"
)

// AppointmentEvent is the payload forwarded for one lifecycle change.
type AppointmentEvent struct {
	Action        string `json:"action"`
	AppointmentID int    `json:"appointment_id"`
	StudentID     int    `json:"student_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

// Client forwards appointment events to an external webhook. Delivery is
// best-effort: the caller logs failures and moves on, nothing is retried.
type Client struct {
	webhookURL string
	skip       bool
	http       *http.Client
}

// New creates a webhook client. With skip set, every call succeeds without
// touching the network, so the worker runs without a webhook configured.
func New(webhookURL string, skip bool) *Client {
	return &Client{
		webhookURL: webhookURL,
		skip:       skip || webhookURL == "",
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Health probes the webhook endpoint.
func (c *Client) Health(ctx context.Context) error {
	if c.skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.webhookURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("webhook unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Notify posts one event to the webhook as JSON.
func (c *Client) Notify(ctx context.Context, evt AppointmentEvent) error {
	if c.skip {
		return nil
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("notifier: encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notifier: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notifier: webhook rejected event (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}
