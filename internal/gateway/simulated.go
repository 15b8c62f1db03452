package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taleloom/internal/tale"
)

// SimulatedSender stands in for a real delivery channel. It waits for
// the configured latency (honoring ctx cancellation) and logs the code
// so the demo flow can complete.
type SimulatedSender struct {
	latency time.Duration
	logger  tale.Logger
}

// NewSimulatedSender creates a sender with the given artificial latency.
func NewSimulatedSender(latency time.Duration, logger tale.Logger) *SimulatedSender {
	return &SimulatedSender{latency: latency, logger: logger}
}

var _ tale.CodeSender = (*SimulatedSender)(nil)

func (s *SimulatedSender) Send(ctx context.Context, destination, code string) error {
	if err := sleepCtx(ctx, s.latency); err != nil {
		return err
	}
	s.logger.Info("verification code issued", "destination", destination, "code", code)
	return nil
}

// StaticGateway is a payment gateway that always approves. It replaces
// the prototype's randomized decline path: failure injection belongs in
// tests, via ScriptedGateway implementations.
type StaticGateway struct {
	latency time.Duration
	clock   tale.Clock
	idgen   tale.IDGenerator
}

// NewStaticGateway creates an always-approving gateway.
func NewStaticGateway(latency time.Duration, clock tale.Clock, idgen tale.IDGenerator) *StaticGateway {
	return &StaticGateway{latency: latency, clock: clock, idgen: idgen}
}

var _ tale.PaymentGateway = (*StaticGateway)(nil)

func (g *StaticGateway) Charge(ctx context.Context, planID string, period tale.BillingPeriod, amount float64) (*tale.Receipt, error) {
	if err := sleepCtx(ctx, g.latency); err != nil {
		return nil, err
	}
	return &tale.Receipt{
		TransactionID: g.idgen.New(),
		PlanID:        planID,
		Period:        period,
		Amount:        amount,
		ChargedAt:     g.clock.Now(),
	}, nil
}

// TemplateGenerator composes a story from the request using fixed
// templates. It is the built-in generator; a model-backed one would
// implement the same interface.
type TemplateGenerator struct {
	latency time.Duration
}

// NewTemplateGenerator creates a generator with the given artificial latency.
func NewTemplateGenerator(latency time.Duration) *TemplateGenerator {
	return &TemplateGenerator{latency: latency}
}

var _ tale.StoryGenerator = (*TemplateGenerator)(nil)

func (g *TemplateGenerator) Generate(ctx context.Context, child *tale.Child, req tale.StoryRequest) (*tale.Story, error) {
	if err := sleepCtx(ctx, g.latency); err != nil {
		return nil, err
	}

	theme := req.Themes[0]
	title := fmt.Sprintf("%s and the %s Adventure", child.Name, theme)

	var b strings.Builder
	fmt.Fprintf(&b, "Once upon a time, %s set off toward the land of %s.\n\n", child.Name, strings.Join(req.Themes, " and "))
	if req.Tone != "" {
		fmt.Fprintf(&b, "The evening felt %s as the journey began.\n\n", strings.ToLower(req.Tone))
	}
	fmt.Fprintf(&b, "Along the way, %s met friends who needed help, and together they found a path nobody had seen before.\n\n", child.Name)
	if req.Lesson != "" {
		fmt.Fprintf(&b, "That night, %s learned something to keep forever: %s.\n\n", child.Name, req.Lesson)
	}
	fmt.Fprintf(&b, "And with the stars watching over, %s drifted off to sleep, dreaming of the next adventure.", child.Name)
	content := b.String()

	excerpt := content
	if idx := strings.Index(excerpt, "\n"); idx > 0 {
		excerpt = excerpt[:idx]
	}

	duration := req.DurationLabel
	if duration == "" {
		duration = "5 min"
	}

	return &tale.Story{
		Title:         title,
		Content:       content,
		Excerpt:       excerpt,
		DurationLabel: duration,
	}, nil
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
