package tale

import (
	"context"
	"errors"
	"fmt"
)

// SelectPlan picks a plan for checkout and opens the checkout screen.
// Unknown plan ids are rejected here; the catalog fallback is for
// display lookups only, not for purchases.
func (c *Controller) SelectPlan(planID string) error {
	if !c.catalog.Known(planID) {
		c.notify(SeverityError, "Unknown plan", "")
		return &ValidationError{Field: "plan_id", Reason: "unknown plan"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedPlanID = planID
	c.gotoLocked(ScreenCheckout)
	return nil
}

// CancelCheckout abandons the selected plan and returns to the plan
// overview.
func (c *Controller) CancelCheckout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedPlanID = ""
	c.gotoLocked(ScreenPlans)
}

// ConfirmCheckout charges for the selected plan. On approval the plan
// is applied and navigation returns home; a decline or timeout leaves
// the plan, screen and counters untouched.
func (c *Controller) ConfirmCheckout(ctx context.Context, period BillingPeriod) (*Receipt, error) {
	if period != BillMonthly && period != BillAnnual {
		c.notify(SeverityError, "Pick a billing period", "")
		return nil, &ValidationError{Field: "period", Reason: "must be monthly or annual"}
	}

	c.mu.Lock()
	planID := c.selectedPlanID
	if planID == "" {
		c.gotoLocked(ScreenPlans)
		c.mu.Unlock()
		return nil, ErrNotFound
	}
	if err := c.beginLocked(categoryCheckout); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	plan := c.catalog.Plan(planID)
	amount := plan.MonthlyPrice
	if period == BillAnnual {
		amount = plan.AnnualPrice
	}

	var receipt *Receipt
	err := c.callGateway(ctx, func(ctx context.Context) error {
		var chargeErr error
		receipt, chargeErr = c.gw.Payments.Charge(ctx, planID, period, amount)
		return chargeErr
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLocked(categoryCheckout)

	if err != nil {
		c.logger.Error("checkout failed", "plan_id", planID, "error", err)
		switch {
		case errors.Is(err, ErrDeclined):
			c.notify(SeverityError, "Payment declined", "Please check your card details and try again.")
		case errors.Is(err, ErrTimeout):
			c.notify(SeverityError, "Payment timed out", "You were not charged. Please try again.")
		default:
			c.notify(SeverityError, "Payment failed", err.Error())
		}
		return nil, err
	}

	c.tracker.SetPlan(planID)
	c.persistUsageLocked()
	c.selectedPlanID = ""
	c.gotoLocked(ScreenHome)
	c.logger.Info("plan activated", "plan_id", planID, "transaction_id", receipt.TransactionID)
	c.notify(SeveritySuccess, "Welcome to "+plan.Name+"!", fmt.Sprintf("Your %s subscription is active.", period))
	return receipt, nil
}
