// model/rental.go
package model

import "time"

type Rental struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	GameID     int64      `json:"game_id"`
	RentedAt   time.Time  `json:"rented_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Price      float64    `json:"price"`
	LateFee    float64    `json:"late_fee"`
}

// Outstanding reports whether the game has not been returned yet.
func (r Rental) Outstanding() bool { return r.ReturnedAt == nil }
