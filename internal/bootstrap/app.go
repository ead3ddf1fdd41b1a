package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clinical-backend/internal/assistant"
	"clinical-backend/internal/corpus"
	"clinical-backend/internal/guidelines"
	"clinical-backend/internal/host"
	"clinical-backend/internal/llm/openai"
	"clinical-backend/internal/notes"
	"clinical-backend/internal/search"
	"clinical-backend/internal/shared/config"
	"clinical-backend/internal/shared/server"
	"clinical-backend/internal/shared/server/middleware"
	"clinical-backend/internal/shared/storage/db"
	"clinical-backend/internal/shared/storage/object"
	localstore "clinical-backend/internal/shared/storage/object/local"
	s3store "clinical-backend/internal/shared/storage/object/s3"
	"clinical-backend/internal/shared/telemetry"
)

// Handler names accepted in APP_HANDLER.
const (
	HandlerGuidelines = "guidelines"
	HandlerAssistant  = "assistant"
	HandlerSearch     = "search"
)

const (
	guidelinesCollection = "guidelines"
	redisWindow          = time.Second
	connectTimeout       = 5 * time.Second
)

// App holds shared dependencies and the handler registry.
// Handler-specific dependencies are built by the factory that needs them.
type App struct {
	Config   config.Config
	Registry *host.Registry
	Notes    *notes.Collection
	Limiter  middleware.Limiter

	DB    *sql.DB
	Mongo *mongo.Client
	Redis *redis.Client
}

// Build prepares shared dependencies and registers every application handler.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{
		Config:   cfg,
		Registry: host.NewRegistry(),
	}

	app.Limiter = app.buildLimiter(ctx)

	app.Notes = notes.NewCollection(os.DirFS(cfg.NotesDir), ".")
	if err := app.Notes.Reload(ctx); err != nil {
		telemetry.Warn("bootstrap.notes_unavailable", map[string]any{"dir": cfg.NotesDir, "error": err})
	}

	for name, f := range map[string]host.Factory{
		HandlerGuidelines: app.guidelinesHandler,
		HandlerAssistant:  app.assistantHandler,
		HandlerSearch:     app.searchHandler,
	} {
		if err := app.Registry.Register(name, f); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Close releases database and cache connections.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		errs = append(errs, a.Mongo.Disconnect(ctx))
		cancel()
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}

func (a *App) engine(handler string) *gin.Engine {
	r := server.NewEngine(server.OptionsFromConfig(a.Config, handler, a.Limiter))
	notes.NewHandler(a.Notes).RegisterRoutes(r)
	return r
}

func (a *App) guidelinesHandler(ctx context.Context) (http.Handler, error) {
	repo, err := a.GuidelineRepo(ctx)
	if err != nil {
		return nil, err
	}
	r := a.engine(HandlerGuidelines)
	guidelines.NewHandler(guidelines.NewService(repo)).RegisterRoutes(r)
	return r, nil
}

func (a *App) assistantHandler(ctx context.Context) (http.Handler, error) {
	store, err := buildStore(ctx, a.Config)
	if err != nil {
		return nil, err
	}
	client := openai.FromKeys(a.Config.DeepSeekAPIKey, a.Config.OpenAIAPIKey, a.Config.LLMTimeout)
	svc := assistant.NewService(corpus.New(store, ""), client)
	if n, err := svc.Reindex(ctx); err != nil {
		telemetry.Warn("bootstrap.corpus_failed", map[string]any{"error": err})
	} else {
		telemetry.Info("bootstrap.corpus_ready", map[string]any{"files": n, "provider": client.Provider()})
	}

	r := a.engine(HandlerAssistant)
	assistant.NewHandler(svc).RegisterRoutes(r)
	return r, nil
}

func (a *App) searchHandler(ctx context.Context) (http.Handler, error) {
	chunks, err := search.Load(ctx, localstore.New(a.Config.IndexDir))
	if err != nil {
		if errors.Is(err, search.ErrNoIndex) {
			return nil, fmt.Errorf("%w in %s: run cmd/indexer first", err, a.Config.IndexDir)
		}
		return nil, err
	}
	telemetry.Info("bootstrap.index_loaded", map[string]any{"chunks": len(chunks), "dir": a.Config.IndexDir})

	r := a.engine(HandlerSearch)
	search.NewHandler(search.NewIndex(chunks)).RegisterRoutes(r)
	return r, nil
}

func (a *App) buildLimiter(ctx context.Context) middleware.Limiter {
	if a.Config.RedisAddr == "" {
		return middleware.NewRateLimiter(time.Now)
	}
	client := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"addr": a.Config.RedisAddr, "error": err})
		_ = client.Close()
		return middleware.NewRateLimiter(time.Now)
	}
	a.Redis = client
	return middleware.NewRedisLimiter(client, redisWindow, time.Now)
}

// GuidelineRepo opens the configured guideline store, falling back to memory in dev.
func (a *App) GuidelineRepo(ctx context.Context) (guidelines.Repo, error) {
	switch a.Config.GuidelineStore {
	case "postgres":
		sqlDB, err := a.buildDB(ctx)
		if err != nil {
			return nil, err
		}
		if sqlDB != nil {
			return &guidelines.PGRepo{DB: sqlDB}, nil
		}
	case "mongo":
		repo, err := a.buildMongoRepo(ctx)
		if err != nil {
			return nil, err
		}
		if repo != nil {
			return repo, nil
		}
	}
	telemetry.Info("bootstrap.guidelines_memory", nil)
	return guidelines.NewMemoryRepo(), nil
}

func (a *App) buildDB(ctx context.Context) (*sql.DB, error) {
	if strings.TrimSpace(a.Config.DatabaseURL) == "" {
		if config.IsDevLike(a.Config.Env) {
			telemetry.Warn("bootstrap.database_url_empty", map[string]any{"fallback": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, a.Config.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if config.IsDevLike(a.Config.Env) {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{"fallback": "memory", "error": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	a.DB = sqlDB
	return sqlDB, nil
}

func (a *App) buildMongoRepo(ctx context.Context) (guidelines.Repo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(a.Config.MongoURI))
	if err == nil {
		err = client.Ping(connectCtx, nil)
	}
	if err != nil {
		if client != nil {
			_ = client.Disconnect(context.Background())
		}
		if config.IsDevLike(a.Config.Env) {
			telemetry.Warn("bootstrap.mongo_connect_failed", map[string]any{"fallback": "memory", "error": err})
			return nil, nil
		}
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	repo, err := guidelines.NewMongoRepo(ctx, client.Database(a.Config.MongoDatabase).Collection(guidelinesCollection))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	a.Mongo = client
	return repo, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}
