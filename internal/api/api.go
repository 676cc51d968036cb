// Package api exposes sync, verify and record queries over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cleared-dev/bankflow/internal/export"
	"github.com/cleared-dev/bankflow/internal/pipeline"
	"github.com/cleared-dev/bankflow/internal/target"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// SessionFunc returns a new session for one request.
type SessionFunc func() *pipeline.Session

type handler struct {
	newSession SessionFunc
	logger     *slog.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(newSession SessionFunc, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	h := &handler{newSession: newSession, logger: logger}
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.POST("/sync", h.sync)
	r.GET("/verify", h.verify)
	r.GET("/records", h.records)
	r.GET("/stats", h.stats)
	r.GET("/source-duplicates", h.sourceDuplicates)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status())
	}
}

type syncRequest struct {
	Full     bool   `json:"full"`
	Only     string `json:"only"`
	Validate bool   `json:"validate"`
}

func (h *handler) sync(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request: " + err.Error()})
			return
		}
	}

	rep, err := h.newSession().Sync(c.Request.Context(), pipeline.SyncOptions{
		Full:     req.Full,
		Only:     req.Only,
		Validate: req.Validate,
	})
	if err != nil {
		h.fail(c, "sync", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": rep})
}

func (h *handler) verify(c *gin.Context) {
	res, err := h.newSession().Verify(c.Request.Context(), pipeline.VerifyOptions{Only: c.Query("only")})
	if err != nil {
		h.fail(c, "verify", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": res.IsValid, "result": res})
}

func (h *handler) records(c *gin.Context) {
	var f target.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid filter: " + err.Error()})
		return
	}
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	rows, err := h.newSession().Records(c.Request.Context(), f)
	if err != nil {
		h.fail(c, "records", err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", `attachment; filename="records.csv"`)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := export.WriteTargets(c.Writer, rows); err != nil {
			h.logger.Warn("writing records CSV", "error", err)
		}
		return
	}

	count := len(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []target.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": count, "records": rows})
}

func (h *handler) stats(c *gin.Context) {
	st, err := h.newSession().Stats(c.Request.Context())
	if err != nil {
		h.fail(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": st})
}

func (h *handler) sourceDuplicates(c *gin.Context) {
	dups, err := h.newSession().SourceDuplicates(c.Request.Context(), c.Query("only"))
	if err != nil {
		h.fail(c, "source duplicates", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(dups), "duplicates": dups})
}

func (h *handler) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, pipeline.ErrNoSourceFiles) {
		status = http.StatusNotFound
	}
	h.logger.Error(op+" failed", "error", err)
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxLimit), nil
}
