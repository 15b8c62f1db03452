package gateway

import (
	"context"
	"fmt"
	"time"

	"taleloom/internal/config"
	"taleloom/internal/tale"
)

// NewSenderFromConfig creates a CodeSender implementation based on the sender config type.
func NewSenderFromConfig(ctx context.Context, cfg config.SenderConfig, logger tale.Logger) (tale.CodeSender, error) {
	switch cfg.Type {
	case "simulated":
		return NewSimulatedSender(time.Duration(cfg.LatencyMS)*time.Millisecond, logger), nil
	case "ses":
		return NewSESSender(ctx, cfg.Region, cfg.FromEmail, cfg.FromName, logger)
	default:
		return nil, fmt.Errorf("unknown sender type: %s", cfg.Type)
	}
}
