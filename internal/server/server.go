package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ramirezvene/token-desconto/internal/cache"
	"github.com/ramirezvene/token-desconto/internal/catalog"
	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	"github.com/ramirezvene/token-desconto/internal/clock"
	"github.com/ramirezvene/token-desconto/internal/config"
	"github.com/ramirezvene/token-desconto/internal/logger"
	"github.com/ramirezvene/token-desconto/internal/margin"
	"github.com/ramirezvene/token-desconto/internal/policy"
	"github.com/ramirezvene/token-desconto/internal/quota"
	quotadomain "github.com/ramirezvene/token-desconto/internal/quota/domain"
	"github.com/ramirezvene/token-desconto/internal/telemetry"
	"github.com/ramirezvene/token-desconto/internal/token"
	tokendomain "github.com/ramirezvene/token-desconto/internal/token/domain"
	"github.com/ramirezvene/token-desconto/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	logger.Module,
	db.Module,
	clock.Module,
	cache.Module,
	telemetry.Module,
	catalog.Module,
	margin.Module,
	policy.Module,
	quota.Module,
	token.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(metrics *telemetry.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.GinMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type registerGinParam struct {
	fx.In

	Metrics *telemetry.Metrics `optional:"true"`
}

func registerGin(p registerGinParam) *gin.Engine {
	return NewEngine(p.Metrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB

	catalogSvc catalogdomain.Service
	tokenSvc   tokendomain.Service
	ledger     quotadomain.Ledger
}

type ServerParams struct {
	fx.In

	Gin *gin.Engine
	Cfg config.Config
	DB  *gorm.DB

	CatalogSvc catalogdomain.Service
	TokenSvc   tokendomain.Service
	Ledger     quotadomain.Ledger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		catalogSvc: p.CatalogSvc,
		tokenSvc:   p.TokenSvc,
		ledger:     p.Ledger,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/tokens/validate", s.ValidateToken)
	v1.POST("/tokens", s.CreateToken)
	v1.GET("/tokens", s.ListTokens)
	v1.GET("/tokens/code/:code", s.GetTokenByCode)
	v1.POST("/tokens/:id/approve", s.ApproveToken)
	v1.POST("/tokens/:id/reject", s.RejectToken)

	v1.GET("/stores", s.ListStores)
	v1.GET("/stores/:id", s.GetStoreByID)
	v1.GET("/stores/:id/quota", s.GetStoreQuota)
	v1.GET("/states", s.ListStates)
	v1.GET("/products/:id", s.GetProductByID)
}
