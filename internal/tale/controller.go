package tale

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Command categories used for the in-flight guard. While a command of a
// category is awaiting a gateway, re-submission of the same category is
// rejected with ErrBusy.
const (
	categoryAuth     = "auth"
	categoryGenerate = "generate"
	categoryCheckout = "checkout"
)

// Gateways bundles the outward capabilities the controller depends on.
type Gateways struct {
	Sender    CodeSender
	Payments  PaymentGateway
	Generator StoryGenerator
	Tokens    TokenIssuer
}

// Options tunes controller behavior. Zero values select the defaults.
type Options struct {
	// Timeout bounds every long-running command (send-code, generate,
	// checkout). Expiry surfaces as ErrTimeout. Default 10s.
	Timeout time.Duration

	// CodeEvery is the minimum interval between verification code
	// sends; CodeBurst allows short bursts. Defaults: 30s, 3.
	CodeEvery time.Duration
	CodeBurst int

	// PlanOverrides replace catalog entries, keyed by plan id.
	PlanOverrides map[string]Plan
}

// Controller is the single owner of navigation, domain and quota state.
// All mutation funnels through its command methods; the presentation
// layer reads back a Snapshot. Methods are safe for concurrent use, but
// state transitions are serialized: there is exactly one writer.
type Controller struct {
	store    Store
	gw       Gateways
	notifier Notifier
	logger   Logger
	clock    Clock
	idgen    IDGenerator

	catalog     *Catalog
	codeLimiter *rate.Limiter
	timeout     time.Duration

	mu      sync.Mutex
	tracker *Tracker

	screen             Screen
	initError          string
	selectedChildID    string
	generated          *Story
	activeStoryID      string
	selectedPlanID     string
	pendingDestination string
	pendingCode        string
	signedIn           bool
	sessionToken       string
	inFlight           map[string]bool
}

// NewController creates a controller on the splash screen. Call StartUp
// to load persisted state and move past it.
func NewController(store Store, gw Gateways, notifier Notifier, logger Logger, clock Clock, idgen IDGenerator, opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CodeEvery <= 0 {
		opts.CodeEvery = 30 * time.Second
	}
	if opts.CodeBurst <= 0 {
		opts.CodeBurst = 3
	}
	catalog := NewCatalog(opts.PlanOverrides)
	return &Controller{
		store:       store,
		gw:          gw,
		notifier:    notifier,
		logger:      logger,
		clock:       clock,
		idgen:       idgen,
		catalog:     catalog,
		codeLimiter: rate.NewLimiter(rate.Every(opts.CodeEvery), opts.CodeBurst),
		timeout:     opts.Timeout,
		tracker:     NewTracker(clock, catalog, nil),
		screen:      ScreenSplash,
		inFlight:    make(map[string]bool),
	}
}

// notify emits a user-facing notification for a command outcome.
func (c *Controller) notify(sev Severity, message, detail string) {
	c.notifier.Notify(Notification{Severity: sev, Message: message, Detail: detail})
}

// beginLocked marks a command category as in flight. Callers must hold
// the mutex.
func (c *Controller) beginLocked(category string) error {
	if c.inFlight[category] {
		return ErrBusy
	}
	c.inFlight[category] = true
	return nil
}

func (c *Controller) endLocked(category string) {
	delete(c.inFlight, category)
}

// callGateway runs fn under the controller's timeout policy and maps
// context expiry to ErrTimeout. The mutex must NOT be held: the wait can
// be long and read-only snapshots should stay available meanwhile.
func (c *Controller) callGateway(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := fn(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return ErrTimeout
	}
	return err
}

// resolveLocked enforces the selection guards: a screen that requires
// selection state is force-redirected to a safe screen when that state
// is missing or stale. Runs on every snapshot read and after every
// transition; callers must hold the mutex.
func (c *Controller) resolveLocked() {
	switch c.screen {
	case ScreenChildEdit:
		if c.selectedChildID == "" {
			c.screen = ScreenChildren
			return
		}
		child, err := c.store.FindChild(c.selectedChildID)
		if err != nil || child == nil {
			c.logger.Warn("stale child selection, redirecting", "child_id", c.selectedChildID)
			c.selectedChildID = ""
			c.screen = ScreenChildren
		}
	case ScreenStoryResult:
		if c.generated == nil {
			c.screen = ScreenHome
		}
	case ScreenStoryReader:
		if c.activeStoryID == "" {
			c.screen = ScreenHome
			return
		}
		story, err := c.store.FindStory(c.activeStoryID)
		if err != nil || story == nil {
			c.logger.Warn("active story vanished, redirecting", "story_id", c.activeStoryID)
			c.activeStoryID = ""
			c.screen = ScreenHome
		}
	case ScreenCheckout:
		if c.selectedPlanID == "" {
			c.screen = ScreenPlans
		}
	}
}

// gotoLocked transitions to a screen and applies the guards.
func (c *Controller) gotoLocked(s Screen) {
	c.screen = s
	c.resolveLocked()
}

// Screen returns the current screen after guard resolution.
func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolveLocked()
	return c.screen
}

// Back navigates to the current screen's fixed back target. Back targets
// are per-screen constants, not a history stack.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolveLocked()
	c.gotoLocked(BackTarget(c.screen))
}

// GoHome navigates to the home screen.
func (c *Controller) GoHome() { c.open(ScreenHome) }

// OpenChildren navigates to the children list.
func (c *Controller) OpenChildren() { c.open(ScreenChildren) }

// OpenChildCreate navigates to the child creation form.
func (c *Controller) OpenChildCreate() { c.open(ScreenChildCreate) }

// OpenStoryCreate navigates to the story creation wizard.
func (c *Controller) OpenStoryCreate() { c.open(ScreenStoryCreate) }

// OpenLibrary navigates to the story library.
func (c *Controller) OpenLibrary() { c.open(ScreenLibrary) }

// OpenSettings navigates to the settings screen.
func (c *Controller) OpenSettings() { c.open(ScreenSettings) }

// OpenPlans navigates to the subscription plan overview.
func (c *Controller) OpenPlans() { c.open(ScreenPlans) }

// OpenSubscriptionStatus navigates to the subscription status screen.
func (c *Controller) OpenSubscriptionStatus() { c.open(ScreenSubscription) }

func (c *Controller) open(s Screen) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gotoLocked(s)
}
