package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"image-gateway/internal/health"
	"image-gateway/internal/images"
	"image-gateway/internal/profiles"
	"image-gateway/internal/shared/config"
	"image-gateway/internal/shared/server"
	"image-gateway/internal/shared/storage/db"
	"image-gateway/internal/shared/storage/object"
	gcsstore "image-gateway/internal/shared/storage/object/gcs"
	localstore "image-gateway/internal/shared/storage/object/local"
	miniostore "image-gateway/internal/shared/storage/object/minio"
	s3store "image-gateway/internal/shared/storage/object/s3"
	"image-gateway/internal/shared/upload"
)

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Store          object.ObjectStore
	Buffer         *upload.Buffer
	Sweeper        *upload.Sweeper
	ImagesRepo     images.Repo
	MetadataRepo   images.MetadataRepo
	ProfilesRepo   profiles.Repo
	ImagesService  *images.Service
	ProfileService *profiles.Service
	HealthHandler  *health.Handler
	ImageHandler   *images.Handler
	ProfileHandler *profiles.Handler
}

// Build wires configuration, stores, services and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if strings.TrimSpace(cfg.ImagesBucket) == "" {
		cfg.ImagesBucket = "images"
	}
	if strings.TrimSpace(cfg.ProfilesBucket) == "" {
		cfg.ProfilesBucket = "profiles"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := BuildStore(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	buf, err := upload.NewBuffer(cfg.Upload.TmpDir, cfg.Upload.MaxBytes)
	if err != nil {
		_ = CloseStore(store)
		closeDB(sqlDB)
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Buffer: buf,
	}
	buildServices(app)

	var filesDir string
	if local, ok := store.(*localstore.Store); ok {
		filesDir = local.Dir()
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		HealthHandler:  app.HealthHandler,
		ImageHandler:   app.ImageHandler,
		ProfileHandler: app.ProfileHandler,
		FilesDir:       filesDir,
	})

	return app, nil
}

// StartBackground launches the stale upload sweeper.
func (a *App) StartBackground() error {
	if a.Config.Upload.MaxAge <= 0 || strings.TrimSpace(a.Config.Upload.SweepSchedule) == "" {
		return nil
	}
	a.Sweeper = upload.NewSweeper(a.Buffer.Dir, a.Config.Upload.MaxAge)
	if err := a.Sweeper.Start(a.Config.Upload.SweepSchedule); err != nil {
		a.Sweeper = nil
		return err
	}
	return nil
}

// Close stops background work and releases clients.
func (a *App) Close() error {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	errs := []error{CloseStore(a.Store)}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() || cfg.Env == "test" {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.ServerOptions(cfg.DB))
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		closeDB(sqlDB)
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

// BuildStore constructs the object store selected by OBJECT_STORE.
func BuildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:        cfg.AWSRegion,
			Endpoint:      cfg.S3.Endpoint,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			UsePathStyle:  cfg.S3.UsePathStyle,
		})
	case "minio":
		store, err := miniostore.New(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL, cfg.Minio.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBuckets(ctx, cfg.ImagesBucket, cfg.ProfilesBucket); err != nil {
			return nil, err
		}
		return store, nil
	case "gcs":
		return gcsstore.New(ctx, cfg.GCS.CredentialsFile, cfg.GCS.PublicBaseURL)
	default:
		return localstore.New(cfg.Local.Dir, cfg.Local.PublicBaseURL), nil
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.ImagesRepo = &images.PGRepo{DB: app.DB}
		app.MetadataRepo = &images.PGMetadataRepo{DB: app.DB}
		app.ProfilesRepo = &profiles.PGRepo{DB: app.DB}
	} else {
		app.ImagesRepo = images.NewMemoryRepo()
		app.MetadataRepo = images.NewMemoryMetadataRepo()
		app.ProfilesRepo = profiles.NewMemoryRepo()
	}

	resolver := object.Resolver{Store: app.Store, SignedTTL: app.Config.SignedURLTTL}

	app.ImagesService = &images.Service{
		Store:    app.Store,
		Resolver: resolver,
		Repo:     app.ImagesRepo,
		Metadata: app.MetadataRepo,
		Bucket:   app.Config.ImagesBucket,
	}
	app.ProfileService = &profiles.Service{
		Store:    app.Store,
		Resolver: resolver,
		Repo:     app.ProfilesRepo,
		Bucket:   app.Config.ProfilesBucket,
	}

	app.HealthHandler = health.NewHandler(health.NewService())
	app.ImageHandler = images.NewHandler(app.ImagesService, app.Buffer)
	app.ProfileHandler = profiles.NewHandler(app.ProfileService, app.Buffer)
}

// CloseStore releases stores that hold a client, such as GCS.
func CloseStore(store object.ObjectStore) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
}
