// Package portal provides the HTTP client for the external e-invoice
// registration portal.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/config"
	"retailcore/internal/domain/documents/einvoice"
)

// Client implements einvoice.Portal over the registry's REST API.
// Transport failures and 5xx responses come back as retryable
// EXTERNAL_SUBMISSION errors; 4xx rejections as non-retryable.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a portal client from config.
func NewClient(cfg config.PortalConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type submitResponse struct {
	IRN     string    `json:"irn"`
	AckNo   string    `json:"ack_no"`
	AckDate time.Time `json:"ack_date"`
	Message string    `json:"message"`
}

type cancelRequest struct {
	IRN    string `json:"irn"`
	Reason string `json:"reason"`
}

// Submit registers one invoice payload. The Idempotency-Key header makes
// a retried call return the original acknowledgement instead of a
// duplicate registration.
func (c *Client) Submit(ctx context.Context, sub einvoice.Submission) (*einvoice.Acknowledgement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/invoices", bytes.NewReader(sub.Payload))
	if err != nil {
		return nil, fmt.Errorf("build portal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", sub.IdempotencyKey)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, apperror.NewExternalSubmission(
			fmt.Sprintf("portal returned %d", resp.StatusCode), true)
	}
	if resp.StatusCode >= 400 {
		var body submitResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		msg := body.Message
		if msg == "" {
			msg = fmt.Sprintf("portal rejected submission with %d", resp.StatusCode)
		}
		return nil, apperror.NewExternalSubmission(msg, false).
			WithDetail("invoice_no", sub.InvoiceNo)
	}

	var body submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperror.NewExternalSubmission("portal returned malformed acknowledgement", true).
			WithCause(err)
	}
	if body.IRN == "" {
		return nil, apperror.NewExternalSubmission("portal acknowledgement missing IRN", false)
	}

	return &einvoice.Acknowledgement{
		IRN:     body.IRN,
		AckNo:   body.AckNo,
		AckDate: body.AckDate,
	}, nil
}

// Cancel revokes a registered IRN.
func (c *Client) Cancel(ctx context.Context, irn, reason string) error {
	payload, err := json.Marshal(cancelRequest{IRN: irn, Reason: reason})
	if err != nil {
		return fmt.Errorf("marshal cancel request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/invoices/cancel", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build portal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return apperror.NewExternalSubmission(
			fmt.Sprintf("portal returned %d", resp.StatusCode), true)
	}
	if resp.StatusCode >= 400 {
		return apperror.NewExternalSubmission(
			fmt.Sprintf("portal rejected cancellation with %d", resp.StatusCode), false).
			WithDetail("irn", irn)
	}
	return nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperror.NewExternalSubmission("portal unreachable", true).WithCause(err)
}

var _ einvoice.Portal = (*Client)(nil)
