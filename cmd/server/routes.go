package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pocketledger/backend/docs"
	"github.com/pocketledger/backend/internal/config"
	"github.com/pocketledger/backend/internal/handlers"
	mW "github.com/pocketledger/backend/internal/middleware"
	"github.com/pocketledger/backend/internal/services"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

type application struct {
	cfg          *config.Config
	logger       zerolog.Logger
	auth         *services.AuthService
	users        *services.UserService
	cards        *services.CardService
	categories   *services.CategoryService
	transactions *services.TransactionService
	transfers    *services.TransferService
	summary      *services.SummaryService
	audit        *services.AuditService
	attachments  *services.AttachmentService
	habits       *services.HabitService
	ready        func(ctx context.Context) error
}

func (app *application) routes() http.Handler {
	docs.SwaggerInfo.Host = "localhost:" + app.cfg.Server.Port

	authHandler := handlers.NewAuthHandler(app.auth)
	userHandler := handlers.NewUserHandler(app.users)
	cardHandler := handlers.NewCardHandler(app.cards)
	categoryHandler := handlers.NewCategoryHandler(app.categories)
	transactionHandler := handlers.NewTransactionHandler(app.transactions)
	transferHandler := handlers.NewTransferHandler(app.transfers)
	summaryHandler := handlers.NewSummaryHandler(app.summary)
	auditHandler := handlers.NewAuditHandler(app.audit)
	uploadHandler := handlers.NewUploadHandler(app.attachments)
	habitHandler := handlers.NewHabitHandler(app.habits)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mW.RequestLogger(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Timeout(app.cfg.Server.RequestTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", app.health)

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/login", authHandler.Login)
		r.Post("/users", userHandler.Register)

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(mW.Authenticator(app.auth))

			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/users/me", userHandler.Me)
			r.Patch("/users/me", userHandler.UpdateMe)
			r.Delete("/users/me", userHandler.DeleteMe)

			r.Get("/cards", cardHandler.ListCards)
			r.Post("/cards", cardHandler.CreateCard)
			r.Get("/cards/{cardID}", cardHandler.GetCard)
			r.Patch("/cards/{cardID}", cardHandler.UpdateCard)
			r.Delete("/cards/{cardID}", cardHandler.DeleteCard)

			r.Get("/categories", categoryHandler.ListCategories)
			r.Post("/categories", categoryHandler.CreateCategory)
			r.Patch("/categories/{categoryID}", categoryHandler.UpdateCategory)
			r.Delete("/categories/{categoryID}", categoryHandler.DeleteCategory)

			r.Get("/transactions", transactionHandler.ListTransactions)
			r.Post("/transactions", transactionHandler.CreateTransaction)
			r.Get("/transactions/{transactionID}", transactionHandler.GetTransaction)
			r.Patch("/transactions/{transactionID}", transactionHandler.UpdateTransaction)
			r.Delete("/transactions/{transactionID}", transactionHandler.DeleteTransaction)

			r.Post("/transfers", transferHandler.CreateTransfer)
			r.Get("/transfers", transferHandler.ListTransfers)
			r.Get("/transfers/{transferID}", transferHandler.GetTransfer)
			r.Patch("/transfers/{transferID}", transferHandler.UpdateTransfer)
			r.Delete("/transfers/{transferID}", transferHandler.DeleteTransfer)

			r.Get("/summary/cards", summaryHandler.CardSummary)
			r.Get("/audit", auditHandler.ListAudit)
			r.Post("/habits", habitHandler.RegisterHabit)

			r.Route("/uploads", func(r chi.Router) {
				r.Post("/transactions", uploadHandler.UploadTransaction)
				r.Post("/transfers", uploadHandler.UploadTransfer)
				r.Get("/transactions/{transactionID}/attachments", uploadHandler.ListByTransaction)
				r.Get("/transfers/{transferID}/attachments", uploadHandler.ListByTransfer)
				r.Get("/attachments", uploadHandler.ListAttachments)
				r.Get("/attachments/{attachmentID}", uploadHandler.GetAttachment)
				r.Get("/attachments/{attachmentID}/download", uploadHandler.DownloadAttachment)
				r.Delete("/attachments/{attachmentID}", uploadHandler.DeleteAttachment)
			})
		})
	})

	return r
}

// health reports "healthy" when the database answers within two seconds.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if app.ready != nil {
		if err := app.ready(ctx); err != nil {
			app.logger.Warn().Err(err).Str("event", "health_degraded").Msg("Database ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.Write([]byte(`{"status":"healthy"}`))
}
