package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apirest "github.com/rckrdmrd/glit-backend-sub002/api/rest"
	"github.com/rckrdmrd/glit-backend-sub002/api/sse"
	"github.com/rckrdmrd/glit-backend-sub002/audit"
	"github.com/rckrdmrd/glit-backend-sub002/cache"
	"github.com/rckrdmrd/glit-backend-sub002/config"
	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	notifyamqp "github.com/rckrdmrd/glit-backend-sub002/notification/amqp"
	"github.com/rckrdmrd/glit-backend-sub002/scheduler"
	"github.com/rckrdmrd/glit-backend-sub002/social/friend"
	"github.com/rckrdmrd/glit-backend-sub002/social/guild"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/assignment"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/classroom"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer dbadapter.Close(db)
	if err := model.AutoMigrate(db); err != nil {
		logger.Fatal("db migrate failed", zap.Error(err))
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache / PubSub ----
	backend, err := cache.Open(cfg.Cache)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	defer backend.Close()
	var c cache.Cache = backend
	var pubsub cache.PubSub = backend
	logger.Info("Cache initialized", zap.Bool("redis", backend.Redis))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Notifications ----
	publishers := []notification.Publisher{notification.NewPubSubPublisher(pubsub)}
	if cfg.Notify.AMQPURL != "" {
		broker, err := notifyamqp.Dial(cfg.Notify.AMQPURL, cfg.Notify.AMQPExchange)
		if err != nil {
			logger.Fatal("amqp dial failed", zap.Error(err))
		}
		defer broker.Close()
		publishers = append(publishers, broker)
		logger.Info("AMQP publisher enabled", zap.String("exchange", cfg.Notify.AMQPExchange))
	}
	notes := notification.NewService(db, logger, publishers...)

	// ---- Services ----
	friendSvc := friend.NewService(db, friend.Options{
		OnlineWindow:        cfg.Social.OnlineWindow,
		RecommendationLimit: cfg.Social.RecommendationLimit,
		SearchLimit:         cfg.Social.SearchLimit,
		ActivityLimit:       cfg.Social.ActivityLimit,
	}, notes, logger)
	guildSvc := guild.NewService(db, guild.Options{
		DefaultMaxMembers: cfg.Guild.DefaultMaxMembers,
		LeaderboardLimit:  cfg.Guild.LeaderboardLimit,
	}, notes, auditSvc, logger)
	classroomSvc := classroom.NewService(db, logger)
	assignmentSvc := assignment.NewService(db, classroomSvc, notes, auditSvc, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger, time.Minute)
	defer sched.Stop()
	sched.Every("guild_challenge_sweep", cfg.Guild.ChallengeSweepInterval, func(ctx context.Context) error {
		_, err := guildSvc.SweepChallenges(ctx)
		return err
	})
	sched.Every("notification_prune", cfg.Notify.PruneInterval, func(ctx context.Context) error {
		_, err := notes.Prune(ctx, time.Now().Add(-cfg.Notify.Retention))
		return err
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	limiter := mw.NewLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	r.Use(limiter.Middleware())
	sched.Every("rate_limit_sweep", 5*time.Minute, func(context.Context) error {
		limiter.Sweep(10 * time.Minute)
		return nil
	})
	if cfg.Metrics.Enabled {
		r.Use(mw.Metrics("glit"))
		metricsH := []gin.HandlerFunc{}
		if len(cfg.Metrics.AllowIPs) > 0 {
			metricsH = append(metricsH, mw.IPWhitelist(cfg.Metrics.AllowIPs))
		}
		metricsH = append(metricsH, gin.WrapH(promhttp.Handler()))
		r.GET(cfg.Metrics.Path, metricsH...)
	}

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apirest.RegisterRoutes(r.Group("/api"), apirest.Handlers{
		Auth:          apirest.NewAuthHandler(db, c, cfg.Security, logger),
		Friends:       apirest.NewFriendHandler(friendSvc),
		Guilds:        apirest.NewGuildHandler(guildSvc),
		Teacher:       apirest.NewTeacherHandler(classroomSvc, assignmentSvc),
		Notifications: apirest.NewNotificationHandler(notes),
	}, mw.Auth(cfg.Security, c))

	// ---- SSE ----
	r.GET("/sse", sse.NewHandler(pubsub, c, cfg.Security, logger).ServeSSE)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
