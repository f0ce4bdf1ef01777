package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/leaseway/leaseway/internal/config"
	"github.com/leaseway/leaseway/internal/contract"
	contractdomain "github.com/leaseway/leaseway/internal/contract/domain"
	"github.com/leaseway/leaseway/internal/deposit"
	depositdomain "github.com/leaseway/leaseway/internal/deposit/domain"
	"github.com/leaseway/leaseway/internal/directory"
	"github.com/leaseway/leaseway/internal/eventledger"
	"github.com/leaseway/leaseway/internal/history"
	historydomain "github.com/leaseway/leaseway/internal/history/domain"
	obsmetrics "github.com/leaseway/leaseway/internal/observability/metrics"
	"github.com/leaseway/leaseway/internal/providers/email"
	"github.com/leaseway/leaseway/internal/renderer"
	"github.com/leaseway/leaseway/internal/rent"
	rentdomain "github.com/leaseway/leaseway/internal/rent/domain"
	"github.com/leaseway/leaseway/internal/signature"
	signaturedomain "github.com/leaseway/leaseway/internal/signature/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	directory.Module,
	email.Module,
	renderer.Module,
	history.Module,
	eventledger.Module,
	contract.Module,
	signature.Module,
	deposit.Module,
	rent.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(Metrics(obsmetrics.HTTP()))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	genID        *snowflake.Node
	contractSvc  contractdomain.Service
	signatureSvc signaturedomain.Service
	depositSvc   depositdomain.Service
	historySvc   historydomain.Service
	rentSvc      rentdomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	GenID        *snowflake.Node
	ContractSvc  contractdomain.Service
	SignatureSvc signaturedomain.Service
	DepositSvc   depositdomain.Service
	HistorySvc   historydomain.Service
	RentSvc      rentdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("server"),
		genID:        p.GenID,
		contractSvc:  p.ContractSvc,
		signatureSvc: p.SignatureSvc,
		depositSvc:   p.DepositSvc,
		historySvc:   p.HistorySvc,
		rentSvc:      p.RentSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	contracts := s.engine.Group("/contracts")
	contracts.POST("", s.CreateContract)
	contracts.GET("/:id", s.GetContract)
	contracts.GET("/:id/history", s.ListContractHistory)
	contracts.GET("/:id/receipts", s.ListContractReceipts)
	contracts.POST("/:id/signature", s.RequestSignature)
	contracts.GET("/:id/signature/events", s.ListSignatureEvents)
	contracts.POST("/:id/signature/callback", s.SignatureCallback)
	contracts.POST("/:id/deposit", s.PayDeposit)
	contracts.POST("/:id/activate", s.ActivateContract)
	contracts.POST("/:id/terminate", s.TerminateContract)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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
