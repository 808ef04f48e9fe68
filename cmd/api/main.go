package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/cache"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/infra/storage"
	"app/internal/middleware"
	"app/internal/server"
	"app/internal/token"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無ければ環境変数だけで動く
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, reading environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	ctx := context.Background()

	//Redis（キャッシュ・レート制限）
	rdb, err := cache.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()

	//メディアストレージ
	media, err := storage.NewS3Storage(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)

	//usecaseに渡す部品
	tokens := token.NewManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hasher := usecase.NewBcryptPasswordHasher(12)
	verifier := usecase.NewBcryptPasswordVerifier()
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, hasher, verifier, tokens, media, idGen, clock, validator.NewAuthValidator())
	userUC := usecase.NewUserUsecase(userRepo, media)

	//Middleware生成
	respCache := middleware.NewResponseCache(rdb, time.Minute)
	gate := middleware.AuthJWT(tokens, userRepo)

	//Handler生成
	authH := handler.NewAuthHandler(authUC, cfg.TempDir, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.CookieSecure, cfg.IsProduction())
	userH := handler.NewUserHandler(userUC, respCache, cfg.TempDir, cfg.IsProduction())

	//Server起動
	e := server.New(cfg, server.Deps{
		Auth:  authH,
		User:  userH,
		Gate:  gate,
		Cache: respCache,
		Redis: rdb,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	//SIGINT/SIGTERMで後片付けしてから落とす
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
