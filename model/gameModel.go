// model/game.go
package model

type Game struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Platform string  `json:"platform"`
	MinAge   int     `json:"min_age"`
	Stock    int64   `json:"stock"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"` // percent, 0-100
}

// EffectivePrice is the list price after the game's own discount,
// before any subscription discount.
func (g Game) EffectivePrice() float64 {
	return g.Price - (g.Price * g.Discount / 100)
}
