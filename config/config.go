package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"commercegate-payment-api/database"
)

type Config struct {
	Database    database.DatabaseConfig
	CyberSource CyberSourceConfig
	Server      ServerConfig
	Redis       RedisConfig
	Session     SessionConfig
}

type CyberSourceConfig struct {
	MerchantID  string
	Password    string
	Environment string
	Endpoint    string
	SolutionID  string
}

type ServerConfig struct {
	Port      string
	JWTSecret string
}

type RedisConfig struct {
	URL               string
	WorkerConcurrency int
}

type SessionConfig struct {
	Secret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	workerConcurrency := 2

	cfg := &Config{
		Database: database.DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		CyberSource: CyberSourceConfig{
			MerchantID:  os.Getenv("CYBERSOURCE_MERCHANT_ID"),
			Password:    os.Getenv("CYBERSOURCE_PASSWORD"),
			Environment: os.Getenv("CYBERSOURCE_ENVIRONMENT"),
			Endpoint:    os.Getenv("CYBERSOURCE_ENDPOINT"),
			SolutionID:  os.Getenv("CYBERSOURCE_SOLUTION_ID"),
		},
		Server: ServerConfig{
			Port:      os.Getenv("SERVER_PORT"),
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Redis: RedisConfig{
			URL:               os.Getenv("REDIS_URL"),
			WorkerConcurrency: workerConcurrency,
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
		},
	}

	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
		log.Printf("Warning: REDIS_URL not set, using default: %s", cfg.Redis.URL)
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}

	return cfg
}
