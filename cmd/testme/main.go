package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/Sardorious/test-me/internal/api/http"
	"github.com/Sardorious/test-me/internal/audit"
	"github.com/Sardorious/test-me/internal/auth"
	"github.com/Sardorious/test-me/internal/bot"
	"github.com/Sardorious/test-me/internal/config"
	"github.com/Sardorious/test-me/internal/db"
	"github.com/Sardorious/test-me/internal/quiz"
	"github.com/Sardorious/test-me/internal/rbac"
	"github.com/Sardorious/test-me/internal/users"
	"github.com/Sardorious/test-me/internal/vocab"
)

func main() {
	cfg := config.Load()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	userStore := users.NewSQLStore(dbh, cfg.DBDriver)
	vocabStore := vocab.NewSQLStore(dbh, cfg.DBDriver)
	quizStore := quiz.NewSQLStore(dbh, cfg.DBDriver)
	engine := quiz.New(quizStore, vocabStore, quiz.WithAudit(audit.NewLog(dbh)))

	if !cfg.EnableBot && !cfg.EnableAPI {
		log.Fatalf("nothing to run: ENABLE_BOT and ENABLE_API are both off")
	}

	// --- Telegram bot ---
	if cfg.EnableBot {
		if cfg.BotToken == "" {
			log.Fatalf("BOT_TOKEN is required when ENABLE_BOT is on")
		}
		tg, err := bot.New(cfg.BotToken, engine, userStore, vocabStore, cfg.AdminIDs)
		if err != nil {
			log.Fatalf("bot init failed: %v", err)
		}
		if !cfg.EnableAPI {
			tg.Run(context.Background())
			return
		}
		go tg.Run(context.Background())
	}

	// --- Auth (JWT over the DB user set, plus the env-bootstrapped admin) ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, userStore, cfg.AdminUser, cfg.AdminPassHash))

	// Protected API (JWT → subject+roles in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc), auth.AttachRolesFromDB(userStore, false))

		// Session queries; handlers force students to their own rows.
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions", api.ListSessionsHandler(engine))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions/{sessionID}", api.SessionSummaryHandler(engine))

		pr.With(rbac.Require("question:override")).
			Post("/questions/{questionID}/correct", api.MarkCorrectHandler(engine))

		// Vocabulary management; reads need only a valid token.
		pr.With(rbac.Require("word:upload")).
			Post("/wordlists", api.UploadWordListHandler(vocabStore, userStore))
		pr.Get("/levels/{level}/units", api.ListUnitsHandler(vocabStore))
		pr.Get("/units/{unitID}/wordlists", api.ListWordListsHandler(vocabStore))
		pr.Get("/wordlists/{wordListID}/words", api.ListWordsHandler(vocabStore))
		pr.With(rbac.Require("unit:delete")).
			Delete("/units/{unitID}", api.DeleteUnitHandler(vocabStore))
		pr.With(rbac.Require("wordlist:delete")).
			Delete("/wordlists/{wordListID}", api.DeleteWordListHandler(vocabStore))

		// User management (admin; wildcard covers the ungranted perms)
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(userStore))
		pr.With(rbac.Require("role:grant")).
			Post("/users/{userID}/roles", api.GrantRoleHandler(userStore))
		pr.With(rbac.Require("role:grant")).
			Delete("/users/{userID}/roles/{role}", api.RevokeRoleHandler(userStore))
		pr.With(rbac.Require("user:set_password")).
			Post("/users/{userID}/password", api.SetPasswordHandler(userStore))

		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(userStore))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
