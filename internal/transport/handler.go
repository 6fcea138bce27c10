package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
	"github.com/anime-shed/doc-inspector-go/internal/logger"
	"github.com/anime-shed/doc-inspector-go/internal/service"
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

// Version is reported by the health endpoint.
var Version = "1.0.0"

// uploadField is the multipart field carrying an uploaded image.
const uploadField = "file"

func NewHandler(svc service.DocumentService, cfg *config.ServerConfig) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)

	v1 := r.Group("/v1")
	{
		v1.POST("/analyze", analyzeImage(svc, cfg))
		v1.POST("/analyze/batch", analyzeBatch(svc, cfg))
		v1.GET("/results/:id", getResult(svc))
		v1.GET("/history", getHistory(svc))
		v1.GET("/profiles", listProfiles(svc))
		v1.GET("/stats", getStats(svc))
	}

	return r
}

// analyzeImage accepts either a multipart upload in the "file" field or a
// JSON body naming a remote image.
func analyzeImage(svc service.DocumentService, cfg *config.ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing document analysis request")

		var (
			rec    *models.AnalysisRecord
			err    error
			source string
		)
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			var name string
			var data []byte
			name, data, err = readUpload(c)
			if err != nil {
				respondError(c, apperrors.GetStatusCode(err), "invalid upload", err)
				return
			}
			source = name
			rec, err = svc.AnalyzeUpload(ctx, name, data, profileParam(c))
		} else {
			var req models.AnalysisRequest
			if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
				respondError(c, http.StatusBadRequest, "invalid request format", bindErr)
				return
			}
			if req.Profile == "" {
				req.Profile = c.Query("profile")
			}
			source = req.URL
			rec, err = svc.Analyze(ctx, req.URL, req.Profile)
		}
		if err != nil {
			respondError(c, determineStatusCode(err), "analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"source":             source,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
			"score":              rec.Global.Score,
			"stars":              rec.Global.Stars,
			"status":             rec.Global.Status,
		}).Info("Document analysis completed successfully")

		c.JSON(http.StatusOK, rec)
	}
}

func analyzeBatch(svc service.DocumentService, cfg *config.ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		if req.Profile == "" {
			req.Profile = c.Query("profile")
		}

		res, err := svc.AnalyzeBatch(ctx, req.URLs, req.Profile)
		if err != nil {
			respondError(c, determineStatusCode(err), "batch analysis failed", err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func getResult(svc service.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stored, err := svc.Result(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, determineStatusCode(err), "result lookup failed", err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", stored.Record)
	}
}

func getHistory(svc service.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				respondError(c, http.StatusBadRequest, "invalid limit",
					apperrors.NewValidationError("limit must be a non-negative integer", err))
				return
			}
			limit = n
		}

		filePath := c.Query("file_path")
		rows, err := svc.History(c.Request.Context(), filePath, limit)
		if err != nil {
			respondError(c, determineStatusCode(err), "history lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, models.HistoryResponse{FilePath: filePath, Results: rows})
	}
}

func listProfiles(svc service.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"profiles": svc.Profiles()})
	}
}

func getStats(svc service.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := svc.Stats()
		c.JSON(http.StatusOK, gin.H{
			"stats":                  stats,
			"avg_processing_time_ms": stats.AvgProcessingTime.Milliseconds(),
		})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func readUpload(c *gin.Context) (string, []byte, error) {
	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		return "", nil, apperrors.NewValidationError("no file uploaded", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, apperrors.NewValidationError("upload exceeds the request size limit", err)
		}
		return "", nil, apperrors.NewInputError("failed to read upload", err)
	}
	return header.Filename, data, nil
}

func profileParam(c *gin.Context) string {
	if p := c.PostForm("profile"); p != "" {
		return p
	}
	return c.Query("profile")
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
