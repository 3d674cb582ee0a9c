package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appconfig "github.com/saker-ai/live-interpreter/internal/config"
	"github.com/saker-ai/live-interpreter/internal/protocol"
	"github.com/saker-ai/live-interpreter/internal/session/fsm"
	"github.com/saker-ai/live-interpreter/internal/storage"
	"github.com/saker-ai/live-interpreter/pkg/interpreter"
)

const languageTimeout = 5 * time.Second

// Session is the connection the control surface drives.
type Session interface {
	State() fsm.State
	TraceID() string
	EndpointURL() string
	SetLanguage(ctx context.Context, cfg protocol.OutboundConfig) error
}

// Transcript is the in-memory transcript served by GET /transcript.
type Transcript interface {
	Since(offset int) []string
	Len() int
}

// Deps are the collaborators behind the routes. Transcript and HistoryDir
// may be empty, which disables the matching routes.
type Deps struct {
	Session     Session
	Transcript  Transcript
	Catalogue   appconfig.Catalogue
	SourceField protocol.SourceField
	HistoryDir  string
}

type languageRequest struct {
	Language       string `json:"language" form:"language"`
	SourceLanguage string `json:"source_language" form:"source_language"`
}

// NewRouter builds the local control surface.
func NewRouter(deps Deps, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/status", func(c *gin.Context) {
		body := gin.H{
			"state":        deps.Session.State(),
			"session_id":   deps.Session.TraceID(),
			"endpoint_url": deps.Session.EndpointURL(),
		}
		if deps.Transcript != nil {
			body["transcript_lines"] = deps.Transcript.Len()
		}
		c.JSON(http.StatusOK, body)
	})

	router.POST("/language", func(c *gin.Context) {
		var req languageRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if strings.TrimSpace(req.Language) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "language is required"})
			return
		}

		field := deps.SourceField
		if field == protocol.SourceFieldNone {
			field = protocol.SourceFieldSource
		}
		cfg := protocol.NewOutboundConfig(deps.Catalogue.Resolve(req.Language))
		if source := strings.TrimSpace(req.SourceLanguage); source != "" {
			cfg = cfg.WithInput(field, deps.Catalogue.Resolve(source))
		}
		if err := cfg.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), languageTimeout)
		defer cancel()
		if err := deps.Session.SetLanguage(ctx, cfg); err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, interpreter.ErrNotOpen) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"language":       cfg.Language(),
			"input_field":    cfg.Field(),
			"input_language": cfg.Input(),
			"status":         cfg.StatusLine(),
		})
	})

	router.GET("/transcript", func(c *gin.Context) {
		if deps.Transcript == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "transcript buffer disabled"})
			return
		}
		since := 0
		if raw := c.Query("since"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative integer"})
				return
			}
			since = n
		}
		lines := deps.Transcript.Since(since)
		c.JSON(http.StatusOK, gin.H{"lines": lines, "next": since + len(lines)})
	})

	history := router.Group("/transcripts")
	history.Use(func(c *gin.Context) {
		if deps.HistoryDir == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "transcript persistence disabled"})
			return
		}
		c.Next()
	})
	history.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"transcripts": storage.ListTranscripts(deps.HistoryDir)})
	})
	history.GET("/:uid", func(c *gin.Context) {
		uid := c.Param("uid")
		entries, err := storage.GetTranscript(deps.HistoryDir, uid)
		switch {
		case errors.Is(err, storage.ErrInvalidUID):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, os.ErrNotExist):
			c.JSON(http.StatusNotFound, gin.H{"error": "transcript not found"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"uid": uid, "lines": entries})
		}
	})
	history.DELETE("/:uid", func(c *gin.Context) {
		if !storage.DeleteTranscript(deps.HistoryDir, c.Param("uid")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transcript not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		if logger == nil {
			return
		}
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", latency),
		)
	}
}
