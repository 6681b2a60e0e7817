package notify

import (
	"context"
	"log/slog"
)

// LogSender writes requests to the log. Used in development and when no
// broker is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, req MailRequest) error {
	s.logger.InfoContext(ctx, "mail requested",
		"template", req.Template,
		"to", req.To,
		"params", req.Params,
	)
	return nil
}

func (s *LogSender) Close() error { return nil }
