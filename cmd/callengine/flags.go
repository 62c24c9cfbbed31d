package main

import (
	"flag"

	"github.com/snarg/callengine/internal/config"
)

// flagSet registers the CLI flags that override config.Load's env-derived
// values, mirroring the teacher's env-file/listen/log-level/database-url
// override pattern.
func flagSet(overrides *config.Overrides, showVersion *bool) {
	flag.StringVar(&overrides.EnvFile, "env-file", "", "Path to .env file (default: .env)")
	flag.StringVar(&overrides.HTTPAddr, "listen", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.MongoDBURL, "database-url", "", "PostgreSQL connection URL (overrides MONGODB_URL)")
	flag.StringVar(&overrides.RedisURL, "redis-url", "", "Redis connection URL (overrides REDIS_URL)")
	flag.StringVar(&overrides.AudioDir, "audio-dir", "", "Audio file directory (overrides AUDIO_DIR)")
	flag.BoolVar(showVersion, "version", false, "Print version and exit")
	flag.Parse()
}
