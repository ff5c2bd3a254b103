package main

import (
	"errors"
	"net/http"
	"strings"

	"paper-hub/config"
	"paper-hub/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func newRouter(cfg *config.Config, library *services.LibraryService, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupPaperRoutes(router, library, log)
	setupLibraryRoutes(router, library, log)
	return router
}

// syncErrorStatus bildet Sync-Fehler auf HTTP-Status ab.
func syncErrorStatus(err error) int {
	if errors.Is(err, services.ErrPaperNotFound) {
		return http.StatusNotFound
	}
	switch services.KindOf(err) {
	case services.FailureValidation:
		return http.StatusBadRequest
	case services.FailureConflict:
		return http.StatusConflict
	case services.FailureStore:
		return http.StatusBadGateway
	}
	if errors.Is(err, services.ErrNotConnected) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondSyncError(c *gin.Context, log *zap.Logger, err error) {
	status := syncErrorStatus(err)
	body := gin.H{"error": err.Error(), "kind": services.KindOf(err).String()}
	var se *services.SyncError
	if errors.As(err, &se) {
		body["attempts"] = se.Attempts
	}
	if status >= http.StatusInternalServerError {
		log.Error("Library request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, body)
}

func setupPaperRoutes(router *gin.Engine, library *services.LibraryService, log *zap.Logger) {
	rg := router.Group("/papers")

	rg.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, library.State())
	})

	// Literaturliste als Text
	rg.GET("/export", func(c *gin.Context) {
		refs := library.References()
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.String(http.StatusOK, "%s", strings.Join(refs, "\n")+"\n")
	})

	rg.GET("/:id", func(c *gin.Context) {
		p, ok := library.Paper(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
			return
		}
		c.JSON(http.StatusOK, p)
	})

	rg.POST("", func(c *gin.Context) {
		var in services.PaperInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		p, err := library.AddPaper(c.Request.Context(), in)
		if err != nil {
			respondSyncError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		st, err := library.DeletePaper(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondSyncError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, st)
	})

	rg.POST("/:id/comments", func(c *gin.Context) {
		var in services.CommentInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		cm, err := library.AddComment(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondSyncError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, cm)
	})

	rg.GET("/:id/source", func(c *gin.Context) {
		loc, err := library.Locate(c.Param("id"))
		if err != nil {
			if errors.Is(err, services.ErrPaperNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, loc)
	})
}

func setupLibraryRoutes(router *gin.Engine, library *services.LibraryService, log *zap.Logger) {
	router.POST("/library/refresh", func(c *gin.Context) {
		if err := library.Refresh(c.Request.Context()); err != nil {
			respondSyncError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, library.State())
	})

	router.GET("/me", func(c *gin.Context) {
		user := library.User()
		if user == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "not connected"})
			return
		}
		c.JSON(http.StatusOK, user)
	})
}
