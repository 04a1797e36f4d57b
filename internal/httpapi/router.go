// Package httpapi exposes the studio over HTTP with gin and serves the
// embedded single page UI.
package httpapi

import (
	"io/fs"
	"net/http"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone/internal/core"
	"github.com/book-expert/voice-clone/internal/metrics"
	"github.com/book-expert/voice-clone/internal/studio"
	"github.com/gin-gonic/gin"
)

// DefaultMaxMultipartMemory bounds the in-memory part of multipart uploads.
const DefaultMaxMultipartMemory = 32 << 20

// Dependencies are the collaborators of the router.
type Dependencies struct {
	Service            *studio.Service
	Blobs              core.BlobStore
	Metrics            *metrics.Metrics
	Log                *logger.Logger
	MaxMultipartMemory int64
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(deps.Log))

	if deps.MaxMultipartMemory > 0 {
		router.MaxMultipartMemory = deps.MaxMultipartMemory
	} else {
		router.MaxMultipartMemory = DefaultMaxMultipartMemory
	}

	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	controller := &Controller{
		service: deps.Service,
		blobs:   deps.Blobs,
	}

	api := router.Group("/api")
	{
		api.GET("/voices", controller.ListVoices)
		api.POST("/voices", controller.CreateVoice)
		api.GET("/voices/:id", controller.GetVoice)
		api.DELETE("/voices/:id", controller.DeleteVoice)
		api.GET("/generations", controller.ListGenerations)
		api.GET("/settings", controller.GetSettings)
		api.PUT("/settings", controller.UpdateSettings)
		api.POST("/tts", controller.CreateSpeech)
		api.GET("/models", controller.ListModels)
		api.GET("/emotion-tags", controller.ListEmotionTags)
	}

	router.GET("/health", controller.Health)
	router.GET("/uploads/:name", controller.ServeBlob(core.BucketUploads))
	router.GET("/generated/:name", controller.ServeBlob(core.BucketGenerated))

	registerUI(router)

	return router
}

func registerUI(router *gin.Engine) {
	assets, err := fs.Sub(webAssets, webDir)
	if err != nil {
		// webDir is embedded at compile time.
		panic(err)
	}

	router.StaticFS("/static", http.FS(assets))
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
}
