package app

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/MHC32/momentum/internal/config"
)

// configPathEnv names a YAML config file; the environment alone is used
// when it is unset.
const configPathEnv = "MOMENTUM_CONFIG"

func MustReadEnv() {
	path := os.Getenv(configPathEnv)
	cfg, err := config.NewReader(path).Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to read config")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("read config")

	config.SetGlobal(cfg)
}
