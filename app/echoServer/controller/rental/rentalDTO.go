package rental

type RentReq struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0"`
	GameID     int64 `json:"game_id" validate:"required,gt=0"`
}

type ReturnReq struct {
	CustomerID int64  `json:"customer_id" validate:"required,gt=0"`
	GameID     int64  `json:"game_id" validate:"required,gt=0"`
	ReturnDate string `json:"return_date" validate:"required"` // YYYY-MM-DD
}
