// Package mail holds the outbound mail collaborator. Real delivery is an
// external system; the default implementation logs the message so reset
// flows work end to end in development.
package mail

import (
	"context"
	"log/slog"

	"betengine/pkg/email"
)

// LogMailer writes would-be emails to the log instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	first, _ := email.DeriveNameFromEmail(to)
	m.logger.InfoContext(ctx, "password reset email",
		"to", to,
		"greeting", first,
		"token", token,
	)
	return nil
}
