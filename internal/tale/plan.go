package tale

// Plan is an immutable subscription plan catalog entry.
type Plan struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	MonthlyPrice      float64 `json:"monthly_price"`
	AnnualPrice       float64 `json:"annual_price"`
	HasTrial          bool    `json:"has_trial"`
	MonthlyStoryLimit int     `json:"monthly_story_limit"`
	DailyStoryLimit   int     `json:"daily_story_limit"`
	RetentionHours    int     `json:"retention_hours"` // 0 means stories are kept forever
}

const (
	PlanFree    = "free"
	PlanPremium = "premium"
	PlanFamily  = "family"
)

// Catalog is a static plan lookup. Overrides from configuration replace
// whole entries; the built-in set is never mutated.
type Catalog struct {
	overrides map[string]Plan
}

var builtinPlans = map[string]Plan{
	PlanFree: {
		ID:                PlanFree,
		Name:              "Free",
		MonthlyStoryLimit: 30,
		DailyStoryLimit:   1,
		RetentionHours:    72,
	},
	PlanPremium: {
		ID:                PlanPremium,
		Name:              "Premium",
		MonthlyPrice:      9.99,
		AnnualPrice:       89.99,
		HasTrial:          true,
		MonthlyStoryLimit: 150,
		DailyStoryLimit:   5,
	},
	PlanFamily: {
		ID:                PlanFamily,
		Name:              "Family",
		MonthlyPrice:      14.99,
		AnnualPrice:       129.99,
		HasTrial:          true,
		MonthlyStoryLimit: 400,
		DailyStoryLimit:   10,
	},
}

// NewCatalog creates a catalog with optional per-plan overrides keyed by
// plan id. Overrides for unknown ids are ignored.
func NewCatalog(overrides map[string]Plan) *Catalog {
	c := &Catalog{overrides: make(map[string]Plan)}
	for id, p := range overrides {
		if _, ok := builtinPlans[id]; ok {
			p.ID = id
			c.overrides[id] = p
		}
	}
	return c
}

// Plan returns the catalog entry for the given id.
// Unknown ids fall back to the premium plan.
func (c *Catalog) Plan(id string) Plan {
	if p, ok := c.overrides[id]; ok {
		return p
	}
	if p, ok := builtinPlans[id]; ok {
		return p
	}
	return c.Plan(PlanPremium)
}

// Known reports whether id names a real plan (no fallback applied).
func (c *Catalog) Known(id string) bool {
	_, ok := builtinPlans[id]
	return ok
}

// All returns every plan in a stable order: free, premium, family.
func (c *Catalog) All() []Plan {
	return []Plan{c.Plan(PlanFree), c.Plan(PlanPremium), c.Plan(PlanFamily)}
}
