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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/config"
	"github.com/oksasatya/go-bookshelf-rbac/internal/container"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	pginfra "github.com/oksasatya/go-bookshelf-rbac/internal/infrastructure/postgres"
	"github.com/oksasatya/go-bookshelf-rbac/internal/interface/middleware"
	"github.com/oksasatya/go-bookshelf-rbac/internal/router"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/helpers"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	policy := rbac.DefaultPolicy()
	if cfg.RBACPolicyFile != "" {
		p, err := rbac.LoadPolicy(cfg.RBACPolicyFile)
		if err != nil {
			log.Fatalf("failed to load rbac policy: %v", err)
		}
		policy = p
		logger.Infof("rbac policy loaded from %s", cfg.RBACPolicyFile)
	}

	if cfg.UseMemoryStore() {
		logger.Warn("STORE_DRIVER=memory; data is lost on restart")
		container.SetRepositories(container.MemoryRepositories())
	} else {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}

		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			logger.WithError(err).Warn("redis unavailable; sessions kept in memory and rate limiting disabled")
			_ = rdb.Close()
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
			container.SetRedis(rdb)
		}

		container.SetPGPool(pool)
		container.SetRepositories(container.PostgresRepositories(pool, rdb, logger))
	}

	// GCS is optional; avatar uploads answer 400 without it
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("gcs client init failed; avatar upload disabled")
		} else {
			defer func() { _ = gcsClient.Close() }()
			container.SetGCS(gcsClient)
		}
	}

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err == nil {
			err = helpers.PingES(ctx, es)
		}
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; book search uses the store")
		} else {
			container.SetES(es)
		}
	}

	if cfg.RabbitMQURL != "" && cfg.RabbitMQEmailQueue != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; notifications disabled")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	// JWT
	jwtManager := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetJWT(jwtManager)
	container.SetPolicy(policy)

	validation.Init()

	// Gin engine and global middleware
	r := gin.New()
	if !cfg.TrustProxy {
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP(cfg.TrustProxy))
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}
	r.GET("/healthz", healthz(logger))

	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()
	logger.WithFields(logrus.Fields{"modules": reg.Modules(), "routes": len(reg.Routes())}).Info("routes registered")

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// healthz pings whichever backing stores are configured. Failures are logged
// and reported only as "unavailable".
func healthz(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		status := http.StatusOK
		check := func(name string, err error) {
			if err == nil {
				checks[name] = "ok"
				return
			}
			logger.WithError(err).WithField("backend", name).Warn("health check failed")
			checks[name], status = "unavailable", http.StatusServiceUnavailable
		}
		if pool := container.GetPGPool(); pool != nil {
			check("postgres", pool.Ping(ctx))
		}
		if rdb := container.GetRedis(); rdb != nil {
			check("redis", rdb.Ping(ctx).Err())
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	}
}
