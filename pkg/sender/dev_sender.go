package sender

import (
	"context"
	"log/slog"
)

// DevSender logs payloads instead of delivering them. Useful for local
// development and hosts where a transport is intentionally disabled.
type DevSender struct {
	logger *slog.Logger
}

// NewDevSender creates a sender that logs every payload and always succeeds.
func NewDevSender(logger *slog.Logger) *DevSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &DevSender{logger: logger}
}

func (d *DevSender) Send(ctx context.Context, payload Payload) error {
	d.logger.LogAttrs(ctx, slog.LevelInfo, "dev sender: payload accepted",
		slog.String("service", string(payload.Service())),
		slog.Any("payload", payload),
	)
	return nil
}
