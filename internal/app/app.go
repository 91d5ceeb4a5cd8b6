package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vitalia-labs/vitalia/internal/config"
	"github.com/vitalia-labs/vitalia/internal/core"
	db "github.com/vitalia-labs/vitalia/internal/core/database"
	importengine "github.com/vitalia-labs/vitalia/internal/core/import_engine"
	"github.com/vitalia-labs/vitalia/internal/core/llm"
	objectclient "github.com/vitalia-labs/vitalia/internal/core/object-client"
	"github.com/vitalia-labs/vitalia/internal/services"
)

type App struct {
	DBClient core.DbClient
	Embedder *llm.GeminiEmbedder
	Importer *importengine.Importer
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	embedder, err := llm.NewCachingEmbedder(geminiEmbedder, cfg.EmbedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("initialize embed cache: %w", err)
	}

	store := importengine.NewEmbedStore(dbClient, embedder)

	opts := importengine.Options{
		ChunkSize:      cfg.ChunkSize,
		MaxRetries:     cfg.MaxRetries,
		AttemptTimeout: time.Duration(cfg.AttemptTimeoutMs) * time.Millisecond,
		MaxFileSize:    cfg.MaxFileSize,
	}
	importer := importengine.NewImporter(dbClient, objClient, store, opts)

	docService := services.NewDocumentService(dbClient, objClient, cfg.BucketName, cfg.MaxFileSize)
	searchService := services.NewSearchService(docService, dbClient, embedder)

	server := NewServer(cfg, docService, searchService, importer)

	return &App{
		DBClient: dbClient,
		Embedder: geminiEmbedder,
		Importer: importer,
		Server:   server,
	}, nil
}

func (a *App) Close() {
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
