package tale

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// StartUp loads persisted state and leaves the splash screen: users who
// completed onboarding land on auth, everyone else on onboarding. A
// store failure keeps the splash screen with an error sub-state instead
// of rendering a broken view.
func (c *Controller) StartUp() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	usage, err := c.store.LoadUsage()
	if err != nil {
		c.initError = err.Error()
		c.logger.Error("startup failed", "error", err)
		return fmt.Errorf("loading usage state: %w", err)
	}
	c.tracker = NewTracker(c.clock, c.catalog, usage)

	onboarded, err := c.store.GetSetting(SettingOnboarded)
	if err != nil {
		c.initError = err.Error()
		c.logger.Error("startup failed", "error", err)
		return fmt.Errorf("reading onboarding flag: %w", err)
	}

	c.initError = ""
	if onboarded == "true" {
		c.gotoLocked(ScreenAuth)
	} else {
		c.gotoLocked(ScreenOnboarding)
	}
	c.logger.Info("startup complete", "screen", string(c.screen))
	return nil
}

// CompleteOnboarding persists the onboarding flag and moves to auth.
func (c *Controller) CompleteOnboarding() error {
	return c.finishOnboarding("Welcome! Let's get you signed in.")
}

// SkipOnboarding behaves like CompleteOnboarding; skipping still
// persists the flag so the slides are not shown again.
func (c *Controller) SkipOnboarding() error {
	return c.finishOnboarding("")
}

func (c *Controller) finishOnboarding(message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.SetSetting(SettingOnboarded, "true"); err != nil {
		c.notify(SeverityError, "Could not save your progress", err.Error())
		return fmt.Errorf("persisting onboarding flag: %w", err)
	}
	c.gotoLocked(ScreenAuth)
	if message != "" {
		c.notify(SeverityInfo, message, "")
	}
	return nil
}

// SendCode generates a verification code and delivers it to the given
// email address or phone number, then moves to the verify screen.
func (c *Controller) SendCode(ctx context.Context, destination string) error {
	destination = strings.TrimSpace(destination)
	if err := validateDestination(destination); err != nil {
		c.notify(SeverityError, "Check your email or phone number", err.Error())
		return err
	}

	c.mu.Lock()
	if !c.codeLimiter.Allow() {
		c.mu.Unlock()
		c.notify(SeverityWarning, "Too many code requests", "Wait a moment before requesting another code.")
		return ErrRateLimited
	}
	if err := c.beginLocked(categoryAuth); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	code, err := newVerificationCode()
	if err == nil {
		err = c.callGateway(ctx, func(ctx context.Context) error {
			return c.gw.Sender.Send(ctx, destination, code)
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLocked(categoryAuth)

	if err != nil {
		c.logger.Error("sending code failed", "destination", destination, "error", err)
		c.notify(SeverityError, "Could not send the code", err.Error())
		return err
	}

	c.pendingDestination = destination
	c.pendingCode = code
	c.gotoLocked(ScreenVerify)
	c.notify(SeveritySuccess, "Code sent", "Check "+destination+" for your verification code.")
	return nil
}

// ResendCode sends a fresh code to the destination of the previous
// SendCode call.
func (c *Controller) ResendCode(ctx context.Context) error {
	c.mu.Lock()
	destination := c.pendingDestination
	c.mu.Unlock()

	if destination == "" {
		c.notify(SeverityError, "No code requested yet", "")
		return &ValidationError{Field: "destination", Reason: "request a code first"}
	}
	return c.SendCode(ctx, destination)
}

// VerifyCode checks the submitted code against the one sent. On success
// a session token is issued and navigation moves to home.
func (c *Controller) VerifyCode(ctx context.Context, code string) error {
	c.mu.Lock()
	if err := c.beginLocked(categoryAuth); err != nil {
		c.mu.Unlock()
		return err
	}
	expected := c.pendingCode
	destination := c.pendingDestination
	c.mu.Unlock()

	finish := func() {
		c.mu.Lock()
		c.endLocked(categoryAuth)
		c.mu.Unlock()
	}

	if expected == "" || strings.TrimSpace(code) != expected {
		finish()
		c.notify(SeverityError, "That code doesn't match", "Double-check the code and try again.")
		return ErrCodeMismatch
	}

	token, err := c.gw.Tokens.Issue(destination, c.clock.Now())
	if err != nil {
		finish()
		c.logger.Error("issuing session token failed", "error", err)
		c.notify(SeverityError, "Sign-in failed", err.Error())
		return fmt.Errorf("issuing session token: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLocked(categoryAuth)
	c.signedIn = true
	c.sessionToken = token
	c.pendingCode = ""
	c.gotoLocked(ScreenHome)
	c.logger.Info("signed in", "destination", destination)
	c.notify(SeveritySuccess, "You're in!", "")
	return nil
}

// SignOut clears the session and returns to the auth screen.
func (c *Controller) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signedIn = false
	c.sessionToken = ""
	c.pendingCode = ""
	c.pendingDestination = ""
	c.gotoLocked(ScreenAuth)
	c.notify(SeverityInfo, "Signed out", "")
}

// validateDestination accepts an email address or a phone number.
func validateDestination(destination string) error {
	if destination == "" {
		return &ValidationError{Field: "destination", Reason: "must not be empty"}
	}
	if strings.Contains(destination, "@") {
		if strings.Count(destination, "@") != 1 || !strings.Contains(destination[strings.Index(destination, "@"):], ".") {
			return &ValidationError{Field: "destination", Reason: "not a valid email address"}
		}
		return nil
	}
	digits := 0
	for _, r := range destination {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return &ValidationError{Field: "destination", Reason: "not a valid phone number"}
		}
	}
	if digits < 7 {
		return &ValidationError{Field: "destination", Reason: "not a valid phone number"}
	}
	return nil
}

// newVerificationCode returns a random 6-digit code.
func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generating verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
