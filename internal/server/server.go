package server

import (
	"context"
	"log"
	"strings"
	"time"

	"clubdev.app/gamify/internal/config"

	activityHttp "clubdev.app/gamify/internal/modules/activity/delivery/http"
	activityRepo "clubdev.app/gamify/internal/modules/activity/repository"
	activityService "clubdev.app/gamify/internal/modules/activity/service"

	githubHttp "clubdev.app/gamify/internal/modules/github/delivery/http"
	githubRepo "clubdev.app/gamify/internal/modules/github/repository"
	githubService "clubdev.app/gamify/internal/modules/github/service"

	leaderboardHttp "clubdev.app/gamify/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "clubdev.app/gamify/internal/modules/leaderboard/repository"
	leaderboardService "clubdev.app/gamify/internal/modules/leaderboard/service"

	ledgerHttp "clubdev.app/gamify/internal/modules/ledger/delivery/http"
	ledgerRepo "clubdev.app/gamify/internal/modules/ledger/repository"
	ledgerService "clubdev.app/gamify/internal/modules/ledger/service"

	notifService "clubdev.app/gamify/internal/modules/notification/service"

	rulesHttp "clubdev.app/gamify/internal/modules/rules/delivery/http"
	rulesRepo "clubdev.app/gamify/internal/modules/rules/repository"
	rulesService "clubdev.app/gamify/internal/modules/rules/service"

	streakHttp "clubdev.app/gamify/internal/modules/streak/delivery/http"
	streakRepo "clubdev.app/gamify/internal/modules/streak/repository"
	streakService "clubdev.app/gamify/internal/modules/streak/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *cron.Cron
}

func NewServer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Server {
	// Rules Module
	ruleRepository := rulesRepo.NewRuleRepository(db)
	ruleSvc := rulesService.NewRuleService(ruleRepository)
	ruleHandler := rulesHttp.NewRuleHandler(ruleSvc)

	// Leaderboard Module
	leaderboardRepository := leaderboardRepo.NewLeaderboardRepository(db)
	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardRepository, redisClient)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	// GrantCreated hook (best-effort, redis pub/sub)
	publisher := notifService.NewGrantPublisher(redisClient)

	// Ledger Module: fans committed grants out to the index and publisher
	ledgerRepository := ledgerRepo.NewLedgerRepository(db)
	ledgerSvc := ledgerService.NewLedgerService(ledgerRepository, leaderboardSvc, publisher)

	// Streak Module
	streakRepository := streakRepo.NewStreakRepository(db)
	streakSvc := streakService.NewStreakService(streakRepository)
	streakHandler := streakHttp.NewStreakHandler(streakSvc)

	ledgerHandler := ledgerHttp.NewLedgerHandler(ledgerSvc, streakSvc)

	// Activity Module
	activityRepository := activityRepo.NewActivityRepository(db)
	activitySvc := activityService.NewActivityService(activityRepository, ruleSvc, ledgerSvc, streakSvc)
	activityHandler := activityHttp.NewActivityHandler(activitySvc)

	// GitHub Module
	snapshotRepository := githubRepo.NewSnapshotRepository(db)
	githubSvc := githubService.NewGitHubService(snapshotRepository, activitySvc)
	githubHandler := githubHttp.NewGitHubHandler(githubSvc)

	// Consistency sweep: compare the redis index against the ledger and
	// rebuild on divergence.
	scheduler := cron.New()
	if redisClient != nil {
		sweepTimeout := cfg.LeaderboardStaleness
		if sweepTimeout <= 0 {
			sweepTimeout = 30 * time.Second
		}
		_, err := scheduler.AddFunc(cfg.ConsistencySweepCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			defer cancel()
			if err := leaderboardSvc.CheckConsistency(ctx); err != nil {
				log.Printf("❌ Leaderboard consistency sweep failed: %v", err)
			}
		})
		if err != nil {
			log.Printf("⚠️ Failed to schedule consistency sweep: %v", err)
		} else {
			log.Printf("📅 Consistency sweep scheduled: %s", cfg.ConsistencySweepCron)
		}
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	api := router.Group("/api")
	{
		// Inbound events
		api.POST("/events", activityHandler.SubmitEvent)
		api.POST("/github/:user_id/snapshot", githubHandler.SubmitSnapshot)

		// Read-only queries (served from cache, staleness bounded)
		api.GET("/users/:user_id/score", ledgerHandler.GetUserScore)
		api.GET("/users/:user_id/badges", ledgerHandler.GetBadges)
		api.GET("/users/:user_id/streak", streakHandler.GetStreak)
		api.GET("/users/:user_id/rank", leaderboardHandler.GetRank)
		api.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		api.GET("/rules", ruleHandler.ListRules)
		api.GET("/rules/:rule_id/versions/:version", ruleHandler.GetRuleVersion)

		// Operational routes
		adminGroup := api.Group("/admin")
		{
			adminGroup.POST("/rules", ruleHandler.CreateRule)
			adminGroup.POST("/leaderboard/rebuild", leaderboardHandler.Rebuild)
			adminGroup.POST("/users/:user_id/recompute", ledgerHandler.Recompute)
			adminGroup.POST("/recompute", ledgerHandler.RecomputeAll)
			adminGroup.POST("/grants/:grant_id/reverse", ledgerHandler.ReverseGrant)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
	}
}

func (s *Server) Run(addr string) error {
	s.scheduler.Start()
	defer s.scheduler.Stop()
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
