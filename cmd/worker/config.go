package main

import (
	"os"

	"foodorder-backend/pkg/logger"
)

// Config holds worker-process configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

func loadConfig() *Config {
	cfg := &Config{
		RedisAddr:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		Concurrency:   10,
	}

	logger.Info("Worker config loaded", map[string]interface{}{
		"redis": cfg.RedisAddr,
	})

	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
