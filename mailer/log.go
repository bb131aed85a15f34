package mailer

import (
	"context"

	"github.com/goliatone/go-edu"
)

// Log writes messages to a logger instead of sending them. Used when no
// SMTP credentials are configured.
type Log struct {
	logger edu.Logger
}

var _ edu.Mailer = (*Log)(nil)

func NewLog(logger edu.Logger) *Log {
	_, logger = edu.ResolveLogger("edu.mailer", nil, logger)
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, msg edu.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.Info("mail to=%s subject=%q body=%s", msg.To, msg.Subject, msg.HTML)
	return nil
}
