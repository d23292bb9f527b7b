package app

import (
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/kanadm12/Spartis-App/internal/blob"
	"github.com/kanadm12/Spartis-App/internal/config"
	"github.com/kanadm12/Spartis-App/internal/pipeline"
	"github.com/kanadm12/Spartis-App/internal/store"
	"github.com/kanadm12/Spartis-App/internal/store/progress"
)

// App holds the explicitly constructed, explicitly lifetimed dependencies
// shared by the serve and worker commands. Nothing here is package-global;
// the container is built at startup and closed on shutdown, which also
// makes swapping in fakes trivial for tests.
type App struct {
	Config    *config.Config
	Progress  *progress.RedisStore
	JobClient store.JobClient
	Uploader  *blob.Uploader
	Runner    *pipeline.Runner

	redisClient *redis.Client
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	app.redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	app.Progress = progress.NewRedisStore(app.redisClient)
	app.JobClient = store.NewAsynqJobClient(app.RedisOpt())

	uploader, err := blob.NewUploader(cfg.Blob.ConnectionString, cfg.Blob.Container, cfg.Blob.Folder)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init blob uploader: %w", err)
	}
	app.Uploader = uploader
	app.Runner = pipeline.NewRunner(pipeline.DefaultDeps())

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			app.Close()
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	log.Println("Application initialization complete.")
	return app, nil
}

// RedisOpt exposes the redis connection settings in asynq's form, for both
// the enqueue client and the worker server.
func (a *App) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     a.Config.Redis.Address,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	}
}

func (a *App) Close() {
	if a.JobClient != nil {
		if err := a.JobClient.Close(); err != nil {
			log.Printf("Error closing job client: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			log.Printf("Error closing redis client: %v", err)
		}
	}
}
