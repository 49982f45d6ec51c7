package model

import "time"

// Plan is a subscription tier
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanAnnual  Plan = "annual"
)

// ParsePlan maps a query value to a plan. Anything unknown falls back to monthly.
func ParsePlan(s string) Plan {
	if Plan(s) == PlanAnnual {
		return PlanAnnual
	}
	return PlanMonthly
}

// Valid reports whether p is a known plan
func (p Plan) Valid() bool {
	return p == PlanMonthly || p == PlanAnnual
}

// ExpiresAt returns the end of the first billing period started at start.
// Calendar overflow normalizes forward, so Jan 31 + 1 month is early March.
func (p Plan) ExpiresAt(start time.Time) time.Time {
	if p == PlanAnnual {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// PlanOffer describes a plan on the landing and signup pages
type PlanOffer struct {
	ID       Plan
	Name     string
	Price    string
	Period   string
	Badge    string
	Features []string
}

// PlanCatalog lists the plans offered on the landing page, monthly first
var PlanCatalog = []PlanOffer{
	{
		ID:     PlanMonthly,
		Name:   "Monthly plan",
		Price:  "R$ 99",
		Period: "/month",
		Features: []string{
			"Unlimited digital menu",
			"QR codes for every table",
			"Real-time order management",
			"Dashboard with reports",
			"Email support",
		},
	},
	{
		ID:     PlanAnnual,
		Name:   "Annual plan",
		Price:  "R$ 990",
		Period: "/year",
		Badge:  "Save 17%",
		Features: []string{
			"Unlimited digital menu",
			"QR codes for every table",
			"Real-time order management",
			"Dashboard with reports",
			"Priority support",
			"2 months free",
		},
	},
}

// Offer returns the catalog entry for p
func (p Plan) Offer() PlanOffer {
	for _, o := range PlanCatalog {
		if o.ID == p {
			return o
		}
	}
	return PlanCatalog[0]
}
