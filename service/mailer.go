package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/VoltaiLTD/voltdesigns/config"
)

// ErrMailNotConfigured is returned when no transport credential is present.
// It is a fatal configuration error for the request, never retried.
var ErrMailNotConfigured = errors.New("email service not configured: RESEND_API_KEY is missing")

// TransportError is a failure reported by the email provider. The message is
// passed through to the HTTP caller.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("email provider rejected message (status %d): %s", e.StatusCode, e.Message)
}

// Mailer sends transactional email through a Resend-compatible HTTP API.
type Mailer struct {
	config     *config.MailConfig
	httpClient *http.Client
}

// Attachment is a base64-encoded file attached to a message.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Message is one outbound email.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	ReplyTo     string
	Attachments []Attachment
}

type sendRequest struct {
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	ReplyTo     string       `json:"reply_to,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func NewMailer(cfg *config.MailConfig) *Mailer {
	return &Mailer{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether a transport credential is present.
func (m *Mailer) Configured() bool {
	return m.config.APIKey != ""
}

// Send delivers exactly one email per successful call. Provider failures are
// returned as *TransportError; there is no automatic retry.
func (m *Mailer) Send(ctx context.Context, msg *Message) error {
	if !m.Configured() {
		return ErrMailNotConfigured
	}
	if len(msg.To) == 0 {
		return errors.New("no recipient")
	}

	reqBody := sendRequest{
		From:        m.config.From,
		To:          msg.To,
		Subject:     msg.Subject,
		HTML:        msg.HTML,
		ReplyTo:     msg.ReplyTo,
		Attachments: msg.Attachments,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.APIURL+"/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return &TransportError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var result sendResponse
		message := string(body)
		if err := json.Unmarshal(body, &result); err == nil && result.Message != "" {
			message = result.Message
		}
		return &TransportError{StatusCode: resp.StatusCode, Message: message}
	}

	return nil
}
