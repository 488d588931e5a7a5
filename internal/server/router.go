package server

import (
	"log/slog"

	"grc-risk/internal/handlers"
	"grc-risk/internal/metrics"
	"grc-risk/internal/middleware"
	"grc-risk/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/goerr/v2"
)

type Options struct {
	CORSOrigins   []string
	SessionSecret string
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

func NewRouter(store handlers.RiskStore, opts Options) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.SessionSecret == "" {
		return nil, goerr.New("session secret is required")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(opts.Metrics.Middleware())
	r.Use(middleware.CORS(opts.CORSOrigins))

	tmpl, err := web.Templates(handlers.TemplateFuncs())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse templates")
	}
	r.SetHTMLTemplate(tmpl)

	h := handlers.New(store, opts.Metrics)

	// JSON API
	r.POST("/assess-risk", h.AssessRisk)
	r.GET("/assess-risk/preview", h.PreviewRisk)
	r.GET("/risks", h.ListRisks)
	r.GET("/risks/export", h.ExportRisks)
	r.GET("/risks/:id", h.GetRisk)
	r.DELETE("/risks/:id", h.DeleteRisk)
	r.GET("/stats", h.Stats)
	r.GET("/heatmap", h.Heatmap)

	// DASHBOARD
	sessionStore := cookie.NewStore([]byte(opts.SessionSecret))
	dash := r.Group("/")
	dash.Use(sessions.Sessions("grc_session", sessionStore))
	dash.GET("/", h.Dashboard)
	dash.POST("/dashboard/risks", h.CreateRiskForm)
	dash.POST("/dashboard/risks/:id/delete", h.DeleteRiskForm)

	// HEALTHCHECK
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	return r, nil
}
