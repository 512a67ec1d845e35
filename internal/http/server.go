package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ASalazar036/ProyectoFepi/internal/config"
	"github.com/ASalazar036/ProyectoFepi/internal/services"
	"github.com/ASalazar036/ProyectoFepi/internal/storage"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
}

func NewServer(cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	provider := services.NewProvider(cfg)
	analysisSvc := services.NewAnalysisService(provider)
	jiraSvc := services.NewJiraService(cfg)
	syncSvc := services.NewSyncService(store, jiraSvc)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	engine.Use(MaxBodySize(cfg.MaxUploadBytes))
	engine.Use(CORS())

	api := NewAPI(cfg, store, analysisSvc, jiraSvc, syncSvc)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}, nil
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Run(addr)
}
