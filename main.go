// Package main game rental API.
//
// @title           Game Rental API
// @version         1.0
// @description     Game rental store (customers, catalog, subscriptions, rentals).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/rafael-fxs/locadora-ppm/app/echoServer"
	authctrl "github.com/rafael-fxs/locadora-ppm/app/echoServer/controller/auth"
	customerctrl "github.com/rafael-fxs/locadora-ppm/app/echoServer/controller/customer"
	gamectrl "github.com/rafael-fxs/locadora-ppm/app/echoServer/controller/game"
	rentalctrl "github.com/rafael-fxs/locadora-ppm/app/echoServer/controller/rental"
	subsctrl "github.com/rafael-fxs/locadora-ppm/app/echoServer/controller/subscription"
	"github.com/rafael-fxs/locadora-ppm/app/echoServer/validation"
	"github.com/rafael-fxs/locadora-ppm/config"
	authrepo "github.com/rafael-fxs/locadora-ppm/repository/auth"
	customerrepo "github.com/rafael-fxs/locadora-ppm/repository/customer"
	gamerepo "github.com/rafael-fxs/locadora-ppm/repository/game"
	rentalrepo "github.com/rafael-fxs/locadora-ppm/repository/rental"
	subsrepo "github.com/rafael-fxs/locadora-ppm/repository/subscription"
	authsvc "github.com/rafael-fxs/locadora-ppm/service/auth"
	customersvc "github.com/rafael-fxs/locadora-ppm/service/customer"
	gamesvc "github.com/rafael-fxs/locadora-ppm/service/game"
	rentalsvc "github.com/rafael-fxs/locadora-ppm/service/rental"
	subssvc "github.com/rafael-fxs/locadora-ppm/service/subscription"
	"github.com/rafael-fxs/locadora-ppm/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB pool
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ar := authrepo.New(db)
	cr := customerrepo.New(db)
	gr := gamerepo.New(db)
	sr := subsrepo.New(db)
	rr := rentalrepo.New(db)

	// services
	as := authsvc.New(ar, cfg.JWTSecret)
	cs := customersvc.New(cr)
	gs := gamesvc.New(gr)
	ss := subssvc.New(db, cr, sr)
	rs := rentalsvc.New(db, rr)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	customerC := &customerctrl.Controller{Svc: cs, V: v, Log: log}
	gameC := &gamectrl.Controller{Svc: gs, V: v, Log: log}
	subsC := &subsctrl.Controller{Svc: ss, V: v, Log: log}
	rentalC := &rentalctrl.Controller{Svc: rs, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:         authC,
		Customer:     customerC,
		Game:         gameC,
		Subscription: subsC,
		Rental:       rentalC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
