package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"issue-service/internal/http/middleware"
)

type RouterOptions struct {
	Env string
	// MediaDir is served under /media when uploads are kept on local disk.
	MediaDir string
}

func NewRouter(handler *Handler, mw Middlewares, opts RouterOptions, log zerolog.Logger) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))
	router.MaxMultipartMemory = 32 << 20

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if opts.MediaDir != "" {
		router.Static("/media", opts.MediaDir)
	}

	handler.Register(router, mw)

	return router
}
