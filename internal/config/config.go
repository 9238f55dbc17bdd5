package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BotToken string
	AdminIDs []int64 // telegram ids granted the admin role on /start

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string

	EnableBot bool
	EnableAPI bool
}

// Load reads an optional .env file and then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file, using process environment")
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		BotToken:      os.Getenv("BOT_TOKEN"),
		AdminIDs:      csvInt64("ADMIN_IDS"),
		AuthSecret:    envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", ""),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000"),
		EnableBot:     envBool("ENABLE_BOT", true),
		EnableAPI:     envBool("ENABLE_API", true),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func csvInt64(k string) []int64 {
	var out []int64
	for _, p := range strings.Split(os.Getenv(k), ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			log.Printf("config: skipping bad id %q in %s", p, k)
			continue
		}
		out = append(out, id)
	}
	return out
}
