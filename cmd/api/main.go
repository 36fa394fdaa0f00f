package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"shareme.org/internal/auth"
	"shareme.org/internal/bucket"
	"shareme.org/internal/email"
	"shareme.org/internal/httpapi"
	"shareme.org/internal/obs"
	"shareme.org/internal/presence"
	"shareme.org/internal/realtime"
	"shareme.org/internal/social"
	"shareme.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)
	realtime.Init()

	secret := os.Getenv("SHAREME_JWT_SECRET")
	if secret == "" {
		log.Fatal("missing SHAREME_JWT_SECRET")
	}
	dsn := os.Getenv("SHAREME_PG_DSN")
	if dsn == "" {
		log.Fatal("missing SHAREME_PG_DSN")
	}

	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	tokens, err := auth.NewTokenService([]byte(secret))
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	authn := auth.NewAuthenticator(store, tokens, envOr("SHAREME_ISSUER", "https://api.shareme.org"))

	svc := social.NewService(
		store.Profiles(),
		store.Posts(),
		store.Comments(),
		store.Friends(),
		store.Notifications(),
		store.Messages(),
	)

	rdb := redis.NewClient(&redis.Options{Addr: envOr("SHAREME_REDIS_ADDR", "127.0.0.1:6379")})
	tracker := presence.NewTracker(rdb)

	var images bucket.Storage = bucket.NewMemory()
	if b := os.Getenv("SHAREME_S3_BUCKET"); b != "" {
		s3images, err := bucket.NewS3Storage(context.Background(), bucket.S3Config{
			Bucket:       b,
			Region:       envOr("SHAREME_S3_REGION", "us-east-1"),
			Endpoint:     os.Getenv("SHAREME_S3_ENDPOINT"),
			AccessKey:    os.Getenv("SHAREME_S3_ACCESS_KEY"),
			SecretKey:    os.Getenv("SHAREME_S3_SECRET_KEY"),
			UsePathStyle: os.Getenv("SHAREME_S3_PATH_STYLE") == "true",
		})
		if err != nil {
			log.Fatalf("s3 storage: %v", err)
		}
		images = s3images
	}

	registry := realtime.NewRegistry()

	api := httpapi.New(httpapi.Config{
		Authenticator: authn,
		Accounts:      store,
		Social:        svc,
		Registry:      registry,
		Events:        realtime.NewRouter(registry),
		Presence:      tracker,
		Images:        images,
		Mail:          email.LogSender{},
		OneTimeTokens: store.Tokens(),
		ReadyProbe:    httpapi.ReadyProbe{DB: store.DB()},
		Version:       version,
	})

	handler := httpapi.RateLimit(httpapi.MaxBodyBytes(api.Handler(), 10<<20), 20, 10)

	srv := &http.Server{
		Addr:              envOr("SHAREME_HTTP_ADDR", ":8080"),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting shareme-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = rdb.Close()
	_ = store.Close()
	log.Println("Stopped")
}
