// Package transport provides concrete implementations of the engine's
// external collaborator interfaces.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/homelistingai/outreach/internal/logging"
)

const defaultHTTPTimeout = 15 * time.Second

// HTTPAssigner enrolls leads into funnel actions through the CRM's HTTP
// API.
type HTTPAssigner struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPAssigner creates an assigner against the CRM API at baseURL.
func NewHTTPAssigner(baseURL string, client *http.Client) *HTTPAssigner {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPAssigner{
		baseURL: baseURL,
		client:  client,
		logger:  logging.Component("assigner"),
	}
}

// Assign enrolls one lead into actionType. Any non-2xx response is an
// error.
func (a *HTTPAssigner) Assign(ctx context.Context, leadID, actionType string) error {
	body, err := json.Marshal(map[string]string{
		"lead_id":     leadID,
		"action_type": actionType,
	})
	if err != nil {
		return fmt.Errorf("failed to encode assignment: %w", err)
	}

	url := a.baseURL + "/api/funnels/assign-action"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build assignment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("assignment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("assignment rejected with status %d", resp.StatusCode)
	}

	a.logger.Debug().
		Str("lead_id", leadID).
		Str("action", actionType).
		Msg("lead assigned")
	return nil
}

// HTTPNotifier delivers user notifications through the CRM's HTTP API.
type HTTPNotifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPNotifier creates a notifier against the CRM API at baseURL.
func NewHTTPNotifier(baseURL string, client *http.Client) *HTTPNotifier {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPNotifier{baseURL: baseURL, client: client}
}

// NotifyUser posts one notification for the user.
func (n *HTTPNotifier) NotifyUser(ctx context.Context, userID, title, body, kind, priority string) error {
	payload, err := json.Marshal(map[string]string{
		"user_id":  userID,
		"title":    title,
		"body":     body,
		"type":     kind,
		"priority": priority,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	url := n.baseURL + "/api/notifications"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected with status %d", resp.StatusCode)
	}
	return nil
}
