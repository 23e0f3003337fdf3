package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/farmland-registry/internal/config"
	"github.com/iliyamo/farmland-registry/internal/database"
	"github.com/iliyamo/farmland-registry/internal/handler"
	"github.com/iliyamo/farmland-registry/internal/queue"
	"github.com/iliyamo/farmland-registry/internal/repository"
	"github.com/iliyamo/farmland-registry/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	farmers := repository.NewFarmerRepo(db)
	fields := repository.NewFieldRepo(db)

	authH := handler.NewAuthHandler(cfg, users)
	roleH := handler.NewRoleHandler(roles)
	farmerH := handler.NewFarmerHandler(farmers)
	fieldH := handler.NewFieldHandler(fields)

	e := echo.New()
	e.HideBanner = true

	browse := router.BrowseMiddleware(rdb)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, roleH, users, cfg.JWTSecret)
	router.RegisterFarmers(e, farmerH, users, cfg.JWTSecret, browse...)
	router.RegisterFields(e, fieldH, users, cfg.JWTSecret, browse...)

	// The audit consumer keeps its own reconnect loop; a broker outage
	// only costs audit lines, never API availability.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
