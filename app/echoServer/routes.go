package echoServer

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/rafael-fxs/locadora-ppm/app/echoServer/controller/auth"
	"github.com/rafael-fxs/locadora-ppm/app/echoServer/controller/customer"
	"github.com/rafael-fxs/locadora-ppm/app/echoServer/controller/game"
	"github.com/rafael-fxs/locadora-ppm/app/echoServer/controller/rental"
	"github.com/rafael-fxs/locadora-ppm/app/echoServer/controller/subscription"
)

type C struct {
	Auth         *auth.Controller
	Customer     *customer.Controller
	Game         *game.Controller
	Subscription *subscription.Controller
	Rental       *rental.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/auth/register", c.Auth.Register)
	pub.POST("/auth/login", c.Auth.Login)

	// Staff (JWT)
	api := e.Group("/v1")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))

	// Customers
	api.GET("/customers", c.Customer.List)
	api.GET("/customers/:id", c.Customer.Detail)
	api.POST("/customers", c.Customer.Create)
	api.PUT("/customers/:id", c.Customer.Update)
	api.DELETE("/customers/:id", c.Customer.Delete)

	// Catalog
	api.GET("/games", c.Game.List)
	api.GET("/games/:id", c.Game.Detail)
	// Admin endpoints
	api.POST("/games", c.Game.Create)
	api.PUT("/games/:id", c.Game.Update)
	api.DELETE("/games/:id", c.Game.Delete)

	// Subscriptions
	api.POST("/subscriptions", c.Subscription.Register)

	// Rentals
	api.POST("/rentals/rent", c.Rental.Rent)
	api.POST("/rentals/return", c.Rental.Return)
	api.GET("/rentals/overdue", c.Rental.Overdue)
	api.GET("/customers/:id/rentals", c.Rental.History)
}
