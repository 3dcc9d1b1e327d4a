package main

import (
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type application struct {
	db       *sql.DB
	cfg      Config
	log      zerolog.Logger
	tokens   *tokenManager
	mailer   Mailer
	validate *validator.Validate
}

func main() {
	initAdmin := flag.String("init-admin", "", "Create a confirmed admin as username:email, print a confirmation code and exit")
	importDir := flag.String("import", "", "Bulk-load CSV files from the given directory and exit")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	if *initAdmin != "" {
		if err := handleInitAdmin(db, *initAdmin); err != nil {
			log.Fatal().Err(err).Msg("init admin")
		}
		return
	}

	if *importDir != "" {
		if err := importCSV(db, log, *importDir); err != nil {
			log.Fatal().Err(err).Msg("import")
		}
		return
	}

	app := &application{
		db:       db,
		cfg:      cfg,
		log:      log,
		tokens:   newTokenManager(cfg),
		mailer:   newMailer(cfg, log),
		validate: newValidator(),
	}

	log.Info().Str("addr", cfg.Addr).Msg("critica starting")
	if err := http.ListenAndServe(cfg.Addr, app.routes()); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(app.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(httprate.LimitByIP(app.cfg.AuthRateLimit, time.Minute))
			r.Post("/signup", app.handleSignup)
			r.Post("/token", app.handleToken)
			r.Post("/token/refresh", app.handleTokenRefresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(app.authenticate)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", app.handleRefList("categories"))
				r.Post("/", app.handleRefCreate("categories"))
				r.Delete("/{slug}", app.handleRefDelete("categories"))
			})
			r.Route("/genres", func(r chi.Router) {
				r.Get("/", app.handleRefList("genres"))
				r.Post("/", app.handleRefCreate("genres"))
				r.Delete("/{slug}", app.handleRefDelete("genres"))
			})

			r.Route("/titles", func(r chi.Router) {
				r.Get("/", app.handleTitleList)
				r.Post("/", app.handleTitleCreate)
				r.Route("/{titleID}", func(r chi.Router) {
					r.Get("/", app.handleTitleGet)
					r.Patch("/", app.handleTitleUpdate)
					r.Delete("/", app.handleTitleDelete)

					r.Route("/reviews", func(r chi.Router) {
						r.Get("/", app.handleReviewList)
						r.Post("/", app.handleReviewCreate)
						r.Route("/{reviewID}", func(r chi.Router) {
							r.Get("/", app.handleReviewGet)
							r.Patch("/", app.handleReviewUpdate)
							r.Delete("/", app.handleReviewDelete)

							r.Route("/comments", func(r chi.Router) {
								r.Get("/", app.handleCommentList)
								r.Post("/", app.handleCommentCreate)
								r.Route("/{commentID}", func(r chi.Router) {
									r.Get("/", app.handleCommentGet)
									r.Patch("/", app.handleCommentUpdate)
									r.Delete("/", app.handleCommentDelete)
								})
							})
						})
					})
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", app.handleUserList)
				r.Post("/", app.handleUserCreate)
				r.Get("/me", app.handleMeGet)
				r.Patch("/me", app.handleMeUpdate)
				r.Get("/{username}", app.handleUserGet)
				r.Patch("/{username}", app.handleUserUpdate)
				r.Delete("/{username}", app.handleUserDelete)
			})
		})
	})

	return r
}

// handleInitAdmin bootstraps the first admin account. The confirmation code
// is printed once instead of mailed.
func handleInitAdmin(db *sql.DB, creds string) error {
	username, email, ok := strings.Cut(creds, ":")
	if !ok || username == "" || email == "" {
		return fmt.Errorf("-init-admin expects username:email")
	}
	if strings.EqualFold(username, reservedUsername) {
		return fmt.Errorf(`username %q is reserved`, username)
	}

	code := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	u := &User{
		Username:         username,
		Email:            email,
		Role:             RoleAdmin,
		IsSuperuser:      true,
		ConfirmationHash: string(hash),
		Confirmed:        true,
	}
	if err := dbCreateUser(db, u); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("admin %q created, confirmation code: %s\n", username, code)
	return nil
}
