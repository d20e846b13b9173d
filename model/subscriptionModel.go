// model/subscription.go
package model

// Subscription is a snapshot of the tier effects at registration time.
// Rows are immutable once inserted.
type Subscription struct {
	ID              int64   `json:"id"`
	Tier            string  `json:"tier"`
	DiscountPercent float64 `json:"discount_percent"`
	ExtraDays       int     `json:"extra_days"`
	WaivesLateFee   bool    `json:"waives_late_fee"`
}
