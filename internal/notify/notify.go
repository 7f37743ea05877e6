// Package notify delivers out-of-band alerts for events an operator should
// see without tailing logs: elevated-risk executions and cycle failures.
package notify

import (
	"context"
	"errors"
	"os"
	"time"

	"asx-auto-trader/internal/api"
	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
)

// Alert levels.
const (
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelCritical = "CRITICAL"
)

type logNotifier struct{}

var _ interfaces.Notifier = (*logNotifier)(nil)

// NewLogNotifier returns a notifier that writes alerts to the structured log.
func NewLogNotifier() interfaces.Notifier {
	return &logNotifier{}
}

func (ln *logNotifier) Alert(ctx context.Context, level, subject, body string) error {
	switch level {
	case LevelCritical:
		logger.Error(ctx, "ALERT: "+subject, "level", level, "body", body)
	case LevelWarning:
		logger.Warn(ctx, "ALERT: "+subject, "level", level, "body", body)
	default:
		logger.Info(ctx, "ALERT: "+subject, "level", level, "body", body)
	}
	return nil
}

type webhookNotifier struct {
	client *api.Client
	url    string
}

var _ interfaces.Notifier = (*webhookNotifier)(nil)

// NewWebhookNotifier posts alerts as JSON to the given URL.
func NewWebhookNotifier(url string) interfaces.Notifier {
	return &webhookNotifier{
		client: api.NewClient(
			api.WithTimeout(10 * time.Second),
			api.WithLogging(true),
		),
		url: url,
	}
}

type webhookPayload struct {
	Level     string `json:"level"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

func (wn *webhookNotifier) Alert(ctx context.Context, level, subject, body string) error {
	payload := webhookPayload{
		Level:     level,
		Subject:   subject,
		Body:      body,
		Service:   "asx-auto-trader",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := wn.client.POST(ctx, wn.url, payload)
	return err
}

type multiNotifier struct {
	targets []interfaces.Notifier
}

var _ interfaces.Notifier = (*multiNotifier)(nil)

// Multi fans an alert out to all targets and joins their errors.
func Multi(targets ...interfaces.Notifier) interfaces.Notifier {
	return &multiNotifier{targets: targets}
}

func (mn *multiNotifier) Alert(ctx context.Context, level, subject, body string) error {
	var errs []error
	for _, t := range mn.targets {
		if err := t.Alert(ctx, level, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromEnv builds the default notifier chain: the log notifier always, plus a
// webhook target when NOTIFY_WEBHOOK_URL is set.
func FromEnv() interfaces.Notifier {
	if url := os.Getenv("NOTIFY_WEBHOOK_URL"); url != "" {
		return Multi(NewLogNotifier(), NewWebhookNotifier(url))
	}
	return NewLogNotifier()
}
