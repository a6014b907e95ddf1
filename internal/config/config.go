package config

import (
    "os"
)

type Config struct {
    DatabaseURL      string
    Port             string
    EngineConfigPath string
    Migrate          bool
}

func Load() Config {
    port := os.Getenv("PORT")
    if port == "" {
        port = "8080"
    }
    return Config{
        DatabaseURL:      os.Getenv("DATABASE_URL"),
        Port:             port,
        EngineConfigPath: os.Getenv("ENGINE_CONFIG"),
        Migrate:          os.Getenv("DB_MIGRATE") != "false",
    }
}
