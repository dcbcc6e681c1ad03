package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Sender delivers a push message to a set of device tokens and returns the
// tokens the push service reported as no longer valid.
type Sender interface {
	SendMulti(ctx context.Context, tokens []string, p Payload) (invalid []string, err error)
}

// FCMSender sends push notifications via Firebase Cloud Messaging.
// Nil-safe: when not configured, SendMulti logs and returns.
type FCMSender struct {
	client *messaging.Client
	logger *slog.Logger
}

// NewFCMSender creates an FCM sender from a service account credentials file.
// Returns nil, nil if credentialsFile is empty (push delivery disabled).
func NewFCMSender(ctx context.Context, credentialsFile, projectID string, logger *slog.Logger) (*FCMSender, error) {
	if credentialsFile == "" {
		return nil, nil
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID},
		option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("create FCM messaging client: %w", err)
	}
	logger.Info("FCM sender initialized", "project_id", projectID)
	return &FCMSender{client: client, logger: logger}, nil
}

// SendMulti sends one notification to every token.
func (s *FCMSender) SendMulti(ctx context.Context, tokens []string, p Payload) ([]string, error) {
	if len(tokens) == 0 {
		return nil, errors.New("no tokens to send to")
	}
	if s == nil || s.client == nil {
		slog.Default().Info("Push send skipped (FCM disabled)", "tokens", len(tokens), "title", p.Title)
		return nil, nil
	}

	resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: &messaging.Notification{Title: p.Title, Body: p.Body},
		Data:         p.Data,
		Android:      &messaging.AndroidConfig{Priority: "high"},
	})
	if err != nil {
		return nil, fmt.Errorf("fcm multicast: %w", err)
	}

	var invalid []string
	var lastErr error
	for i, r := range resp.Responses {
		if r.Success {
			continue
		}
		lastErr = r.Error
		if messaging.IsInvalidArgument(r.Error) || messaging.IsRegistrationTokenNotRegistered(r.Error) {
			invalid = append(invalid, tokens[i])
		}
	}
	if resp.SuccessCount == 0 && lastErr != nil {
		return invalid, fmt.Errorf("fcm: all %d sends failed: %w", resp.FailureCount, lastErr)
	}
	if resp.FailureCount > 0 {
		s.logger.Warn("FCM partial failure", "success", resp.SuccessCount, "failure", resp.FailureCount)
	}
	return invalid, nil
}
