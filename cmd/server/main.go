package main

import (
	"log"
	"os"

	"github.com/coursemarket/server/internal/bootstrap"
	"github.com/coursemarket/server/internal/server"
	"github.com/coursemarket/server/pkg/database"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	stripe "github.com/stripe/stripe-go/v78"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment as-is")
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	db := database.Connect()
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}

	if os.Getenv("APP_ENV") == "development" {
		if err := bootstrap.SeedAdminUser(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	var redisClient *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
	}

	srv := server.NewServer(db, redisClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := srv.Run(":" + port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
