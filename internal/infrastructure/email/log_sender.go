package email

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them.
// Used when no SendGrid key is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("email")}
}

// Send logs msg at info level
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("Email not delivered, no provider configured",
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}

var _ Sender = (*LogSender)(nil)
