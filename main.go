package main

import (
	"os"
	"strings"
	"time"

	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/auth"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/clubs"
	dbpkg "github.com/lorenzoromandini/CalcettoApp-sub001/internal/db"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/matches"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/ratings"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/stats"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env("LOG_PRETTY", "") != "" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	dsn := env("DB_PATH", "calcetto.db")
	gdb, err := dbpkg.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}

	if err := dbpkg.AutoMigrate(gdb,
		&auth.User{}, &auth.Session{},
		&clubs.Club{}, &clubs.Member{}, &clubs.Invite{},
		&matches.Match{}, &matches.Goal{}, &matches.Participation{}, &matches.RSVP{},
		&ratings.PlayerRating{},
	); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	authRepo := auth.NewRepository(gdb)
	clubsRepo := clubs.NewRepository(gdb)
	matchesRepo := matches.NewRepository(gdb)
	matchesSvc := matches.NewService(gdb, matchesRepo, clubsRepo, log)
	ratingsSvc := ratings.NewService(gdb, matchesRepo, clubsRepo, log)
	statsSvc := stats.NewService(gdb, clubsRepo)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	// Configure explicit trusted proxies to avoid gin's trust-all warning.
	// Default trusts only loopback; override via TRUSTED_PROXIES (comma-separated CIDRs/IPs).
	tp := strings.Split(env("TRUSTED_PROXIES", "127.0.0.1,::1"), ",")
	for i := range tp {
		tp[i] = strings.TrimSpace(tp[i])
	}
	if err := r.SetTrustedProxies(tp); err != nil {
		log.Fatal().Err(err).Msg("trusted proxies")
	}

	protect := auth.RequireUser(authRepo)
	auth.RegisterRoutes(r, authRepo)
	clubs.RegisterRoutes(r, clubsRepo, protect)
	matches.RegisterRoutes(r, matchesSvc, protect)
	ratings.RegisterRoutes(r, ratingsSvc, protect)
	stats.RegisterRoutes(r, statsSvc, protect)

	addr := env("ADDR", ":8080")
	log.Info().Str("addr", addr).Msg("listening")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
