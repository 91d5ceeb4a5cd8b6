package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vitalia-labs/vitalia/internal/api/handlers"
	appMiddleware "github.com/vitalia-labs/vitalia/internal/api/middlewares"
	"github.com/vitalia-labs/vitalia/internal/config"
	importengine "github.com/vitalia-labs/vitalia/internal/core/import_engine"
	"github.com/vitalia-labs/vitalia/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, docs *services.DocumentService, search *services.SearchService, importer *importengine.Importer) *Server {
	docHandler := handlers.NewDocumentHandler(docs, importer)
	importHandler := handlers.NewImportHandler(docs, importer.Registry())
	searchHandler := handlers.NewSearchHandler(search)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.UserAuth)
			protected.Use(middleware.Timeout(60 * time.Second))

			protected.Get("/documents", docHandler.GetDocuments)
			protected.Get("/documents/{documentID}", docHandler.GetDocument)
			protected.Get("/imports/{documentID}", importHandler.GetImportStatus)
			protected.Post("/imports/{documentID}/cancel", importHandler.CancelImport)
			protected.Post("/search", searchHandler.SearchDocument)
		})

		// Uploads skip the request timeout: a multi-gigabyte export takes
		// longer than any fixed deadline that suits the other routes.
		api.Group(func(uploads chi.Router) {
			uploads.Use(appMiddleware.UserAuth)
			uploads.Post("/documents/upload", docHandler.UploadDocument)
		})
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
