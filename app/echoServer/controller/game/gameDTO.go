package game

type CreateGameReq struct {
	Title    string  `json:"title" validate:"required"`
	Platform string  `json:"platform" validate:"required"`
	MinAge   int     `json:"min_age" validate:"gte=0"`
	Stock    int64   `json:"stock" validate:"gte=0"`
	Price    float64 `json:"price" validate:"gte=0"`
	Discount float64 `json:"discount" validate:"gte=0,lte=100"`
}

type UpdateGameReq = CreateGameReq
