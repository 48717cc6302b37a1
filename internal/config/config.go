package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ServerPort string

	JWTSecret string

	// TokenMaxAge is the auth token lifetime in seconds.
	TokenMaxAge int

	// RedisURL is optional; an empty value disables the feed rank cache.
	RedisURL string

	// ItemsPerPage is the page size applied to every list endpoint.
	ItemsPerPage int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	tokenMaxAge, err := strconv.Atoi(os.Getenv("TOKEN_MAX_AGE"))
	if err != nil || tokenMaxAge <= 0 {
		tokenMaxAge = 30 * 24 * 60 * 60 // 30 days
	}

	itemsPerPage, err := strconv.Atoi(os.Getenv("ITEMS_PER_PAGE"))
	if err != nil || itemsPerPage <= 0 {
		itemsPerPage = 20
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		ServerPort: serverPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		TokenMaxAge: tokenMaxAge,

		RedisURL: os.Getenv("REDIS_URL"),

		ItemsPerPage: itemsPerPage,
	}, nil
}
