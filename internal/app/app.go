// Package app is the composition root: it turns a Config into a wired
// Controller with its store, gateways and logger, and owns their
// lifecycle.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"taleloom/internal/config"
	"taleloom/internal/gateway"
	"taleloom/internal/store"
	"taleloom/internal/tale"
)

// App holds the wired application components.
type App struct {
	Config     *config.Config
	Store      tale.Store
	Controller *tale.Controller
	Logger     tale.Logger

	logFile *os.File
}

// New wires an App from the given config. The notifier receives every
// user-facing notification the controller emits; pass tale.NopNotifier
// if nobody is listening.
func New(ctx context.Context, cfg *config.Config, notifier tale.Notifier) (*App, error) {
	if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}

	sessionID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, sessionID)
	if err != nil {
		return nil, err
	}
	logger := &slogAdapter{l: slogger}

	if cfg.Store.Type == "sqlite" && cfg.Store.DataDir != "" {
		if err := os.MkdirAll(cfg.Store.DataDir, 0755); err != nil {
			logFile.Close()
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	st, err := store.NewStoreFromConfig(cfg.Store)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	sender, err := gateway.NewSenderFromConfig(ctx, cfg.Sender, logger)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating sender: %w", err)
	}

	clock := &tale.RealClock{}
	idgen := &tale.UUIDGenerator{}

	secret := cfg.Auth.TokenSecret
	if secret == "" {
		// Sessions won't survive a restart without a configured secret.
		secret = randomSecret()
		logger.Warn("auth.token_secret not set, using an ephemeral secret")
	}
	tokens := gateway.NewJWTIssuer(secret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	latency := time.Duration(cfg.Sender.LatencyMS) * time.Millisecond
	gw := tale.Gateways{
		Sender:    sender,
		Payments:  gateway.NewStaticGateway(latency, clock, idgen),
		Generator: gateway.NewTemplateGenerator(latency),
		Tokens:    tokens,
	}

	opts := tale.Options{
		Timeout:       time.Duration(cfg.Command.TimeoutSeconds) * time.Second,
		CodeEvery:     time.Duration(cfg.Auth.CodeEverySeconds) * time.Second,
		CodeBurst:     cfg.Auth.CodeBurst,
		PlanOverrides: planOverrides(cfg.Plans),
	}

	ctrl := tale.NewController(st, gw, notifier, logger, clock, idgen, opts)
	logger.Info("application wired", "store", cfg.Store.Type, "sender", cfg.Sender.Type)

	return &App{
		Config:     cfg,
		Store:      st,
		Controller: ctrl,
		Logger:     logger,
		logFile:    logFile,
	}, nil
}

// Close releases the store and log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.Store.Close(); err != nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// planOverrides converts config plan entries to catalog overrides.
func planOverrides(plans map[string]config.PlanConfig) map[string]tale.Plan {
	if len(plans) == 0 {
		return nil
	}
	out := make(map[string]tale.Plan, len(plans))
	for id, p := range plans {
		out[id] = tale.Plan{
			ID:                id,
			Name:              p.Name,
			MonthlyPrice:      p.MonthlyPrice,
			AnnualPrice:       p.AnnualPrice,
			HasTrial:          p.HasTrial,
			MonthlyStoryLimit: p.MonthlyStoryLimit,
			DailyStoryLimit:   p.DailyStoryLimit,
			RetentionHours:    p.RetentionHours,
		}
	}
	return out
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}
