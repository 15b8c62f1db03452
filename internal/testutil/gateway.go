package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taleloom/internal/tale"
)

// ScriptedSender records sent codes and can be told to fail or stall.
type ScriptedSender struct {
	mu           sync.Mutex
	Err          error
	Delay        time.Duration
	destinations []string
	codes        []string
}

func NewScriptedSender() *ScriptedSender {
	return &ScriptedSender{}
}

var _ tale.CodeSender = (*ScriptedSender)(nil)

func (s *ScriptedSender) Send(ctx context.Context, destination, code string) error {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.destinations = append(s.destinations, destination)
	s.codes = append(s.codes, code)
	return nil
}

// LastCode returns the most recently sent code, or "".
func (s *ScriptedSender) LastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}

// SendCount returns how many codes were delivered.
func (s *ScriptedSender) SendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

// ScriptedGateway replays a queue of charge outcomes. An empty queue
// approves every charge.
type ScriptedGateway struct {
	mu       sync.Mutex
	Delay    time.Duration
	outcomes []error
	receipts []*tale.Receipt
	counter  int
}

func NewScriptedGateway() *ScriptedGateway {
	return &ScriptedGateway{}
}

var _ tale.PaymentGateway = (*ScriptedGateway)(nil)

// Queue appends an outcome for the next charge; nil means approve.
func (g *ScriptedGateway) Queue(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes = append(g.outcomes, err)
}

func (g *ScriptedGateway) Charge(ctx context.Context, planID string, period tale.BillingPeriod, amount float64) (*tale.Receipt, error) {
	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.outcomes) > 0 {
		err := g.outcomes[0]
		g.outcomes = g.outcomes[1:]
		if err != nil {
			return nil, err
		}
	}
	g.counter++
	r := &tale.Receipt{
		TransactionID: fmt.Sprintf("txn-%d", g.counter),
		PlanID:        planID,
		Period:        period,
		Amount:        amount,
	}
	g.receipts = append(g.receipts, r)
	return r, nil
}

// Receipts returns every receipt issued so far.
func (g *ScriptedGateway) Receipts() []*tale.Receipt {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*tale.Receipt, len(g.receipts))
	copy(out, g.receipts)
	return out
}

// StubGenerator produces a deterministic draft. Err and Delay allow
// failure and timeout scenarios.
type StubGenerator struct {
	mu    sync.Mutex
	Err   error
	Delay time.Duration
	calls int
}

func NewStubGenerator() *StubGenerator {
	return &StubGenerator{}
}

var _ tale.StoryGenerator = (*StubGenerator)(nil)

func (g *StubGenerator) Generate(ctx context.Context, child *tale.Child, req tale.StoryRequest) (*tale.Story, error) {
	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.calls++
	theme := ""
	if len(req.Themes) > 0 {
		theme = req.Themes[0]
	}
	return &tale.Story{
		Title:         fmt.Sprintf("%s and the %s Tale", child.Name, theme),
		Content:       fmt.Sprintf("A story for %s about %s.", child.Name, theme),
		Excerpt:       fmt.Sprintf("A story for %s.", child.Name),
		DurationLabel: "5 min",
	}, nil
}

// Calls returns how many drafts were produced.
func (g *StubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// StaticTokens issues a predictable session token.
type StaticTokens struct {
	Err error
}

var _ tale.TokenIssuer = (*StaticTokens)(nil)

func (t *StaticTokens) Issue(subject string, now time.Time) (string, error) {
	if t.Err != nil {
		return "", t.Err
	}
	return "token-for-" + subject, nil
}
