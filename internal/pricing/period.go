package pricing

// BillingPeriod is how often the subscription is charged. It never changes
// the one-time charges.
type BillingPeriod string

const (
	PeriodMonthly BillingPeriod = "monthly"
	PeriodAnnual  BillingPeriod = "annual"
)

// annualChargedMonths is the "one month free" annual offer.
const annualChargedMonths = 11

// Valid reports whether p is a known period.
func (p BillingPeriod) Valid() bool {
	return p == PeriodMonthly || p == PeriodAnnual
}

// OrDefault returns p, or monthly when p is unknown.
func (p BillingPeriod) OrDefault() BillingPeriod {
	if p.Valid() {
		return p
	}
	return PeriodMonthly
}

// RecurringFor scales the monthly recurring amount to the billed period.
func (b Breakdown) RecurringFor(p BillingPeriod) Money {
	if p == PeriodAnnual {
		return b.Recurring * annualChargedMonths
	}
	return b.Recurring
}

// TotalDueNow is what the customer pays at checkout for period p.
func (b Breakdown) TotalDueNow(p BillingPeriod) Money {
	return b.OneTime + b.RecurringFor(p)
}

// Quote is a breakdown presented for a billing period.
type Quote struct {
	Breakdown
	Period          BillingPeriod `json:"period"`
	RecurringBilled Money         `json:"recurringBilled" doc:"Recurring amount billed for the period in cents"`
	TotalDueNow     Money         `json:"totalDueNow" doc:"Amount charged at checkout in cents"`
}

// QuoteFor builds the presentation of b for period p.
func QuoteFor(b Breakdown, p BillingPeriod) Quote {
	p = p.OrDefault()
	return Quote{
		Breakdown:       b,
		Period:          p,
		RecurringBilled: b.RecurringFor(p),
		TotalDueNow:     b.TotalDueNow(p),
	}
}
