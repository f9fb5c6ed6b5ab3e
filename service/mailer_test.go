package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/VoltaiLTD/voltdesigns/config"
)

func TestMailerSendSuccess(t *testing.T) {
	var captured sendRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("Failed to parse request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"email-123"}`))
	}))
	defer server.Close()

	mailer := NewMailer(&config.MailConfig{
		APIURL: server.URL,
		APIKey: "re_test_key",
		From:   "invoices@test.example",
	})

	msg := &Message{
		To:      []string{"client@example.com"},
		Subject: "Quote VDA-20250101-1234",
		HTML:    "<p>hi</p>",
		ReplyTo: "client@example.com",
		Attachments: []Attachment{
			{Filename: "ada-studio.pdf", Content: "JVBERi0="},
		},
	}

	if err := mailer.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotAuth != "Bearer re_test_key" {
		t.Errorf("Unexpected auth header %q", gotAuth)
	}
	if captured.From != "invoices@test.example" {
		t.Errorf("Unexpected from %q", captured.From)
	}
	if len(captured.To) != 1 || captured.To[0] != "client@example.com" {
		t.Errorf("Unexpected to %v", captured.To)
	}
	if len(captured.Attachments) != 1 || captured.Attachments[0].Filename != "ada-studio.pdf" {
		t.Errorf("Unexpected attachments %v", captured.Attachments)
	}
}

func TestMailerSendNotConfigured(t *testing.T) {
	mailer := NewMailer(&config.MailConfig{APIURL: "https://api.resend.com"})

	err := mailer.Send(context.Background(), &Message{To: []string{"a@b.c"}})
	if !errors.Is(err, ErrMailNotConfigured) {
		t.Errorf("Expected ErrMailNotConfigured, got %v", err)
	}
	if mailer.Configured() {
		t.Error("Expected Configured() to be false")
	}
}

func TestMailerSendNoRecipient(t *testing.T) {
	mailer := NewMailer(&config.MailConfig{APIURL: "https://api.resend.com", APIKey: "k"})

	if err := mailer.Send(context.Background(), &Message{}); err == nil {
		t.Error("Expected error for missing recipient")
	}
}

func TestMailerSendProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Invalid ` + "`to`" + ` address"}`))
	}))
	defer server.Close()

	mailer := NewMailer(&config.MailConfig{APIURL: server.URL, APIKey: "k", From: "f@t.e"})

	err := mailer.Send(context.Background(), &Message{To: []string{"bad"}})
	if err == nil {
		t.Fatal("Expected error for provider rejection")
	}

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransportError, got %T: %v", err, err)
	}
	if te.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Unexpected status %d", te.StatusCode)
	}
	if te.Message != "Invalid `to` address" {
		t.Errorf("Expected provider message passthrough, got %q", te.Message)
	}
}

func TestMailerSendNetworkError(t *testing.T) {
	// Point at a closed server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	mailer := NewMailer(&config.MailConfig{APIURL: server.URL, APIKey: "k", From: "f@t.e"})

	err := mailer.Send(context.Background(), &Message{To: []string{"a@b.c"}})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransportError for network failure, got %T: %v", err, err)
	}
}
