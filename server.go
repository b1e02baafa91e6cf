package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/moldtrack_backend/config"
	"bitbucket.org/mmdatafocus/moldtrack_backend/middlewares"
	"bitbucket.org/mmdatafocus/moldtrack_backend/models"
	"bitbucket.org/mmdatafocus/moldtrack_backend/utils"
	"bitbucket.org/mmdatafocus/moldtrack_backend/workflow"
)

const defaultPort = "8080"

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// The engine pointer is set after dependencies connect; until then app
	// endpoints answer 503.
	var engine *workflow.TeflonEngine

	r := gin.New()
	r.Use(middlewares.ContextMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if engine == nil || !engine.Ready() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "engine not ready"})
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "x-correlation-id", "x-locale")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/teflon/status", func(c *gin.Context) {
		var params workflow.TeflonQueryParams
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rows := engine.Query(params)
		c.JSON(http.StatusOK, gin.H{
			"generation": engine.Generation(),
			"count":      len(rows),
			"rows":       rows,
		})
	})

	r.POST("/teflon/submit", func(c *gin.Context) {
		var in workflow.SubmitCoatingInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logRow, err := engine.SubmitForCoating(c.Request.Context(), in)
		if err != nil {
			writeTransitionError(c, err)
			return
		}
		c.JSON(http.StatusCreated, logRow)
	})

	r.POST("/teflon/complete", func(c *gin.Context) {
		var in workflow.ConfirmCompletionInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logRow, err := engine.ConfirmCompletion(c.Request.Context(), in)
		if err != nil {
			writeTransitionError(c, err)
			return
		}
		c.JSON(http.StatusCreated, logRow)
	})

	r.POST("/teflon/refresh", func(c *gin.Context) {
		if err := engine.ManualRefresh(c.Request.Context()); err != nil {
			if errors.Is(err, utils.ErrReloadInFlight) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"generation": engine.Generation()})
	})

	r.GET("/teflon/export", func(c *gin.Context) {
		var params workflow.TeflonQueryParams
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rows := engine.Query(params)
		f, err := workflow.BuildTeflonStatusWorkbook(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=teflon_status.xlsx")
		if err := f.Write(c.Writer); err != nil {
			logger.WithFields(logrus.Fields{"field": "export"}).Error("failed to write workbook: " + err.Error())
		}
	})

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	store := models.NewGormDatastore(db)
	eng := workflow.NewTeflonEngine(store, logger, workflow.WithLocker(config.GetRedisLock()))
	for attempt := 1; ; attempt++ {
		if err := eng.Load(sigCtx); err == nil {
			break
		} else {
			sleep := time.Second * time.Duration(attempt)
			if sleep > 15*time.Second {
				sleep = 15 * time.Second
			}
			logger.WithFields(logrus.Fields{
				"field":   "teflon",
				"attempt": attempt,
			}).Warn("initial load failed; retrying in " + sleep.String() + ": " + err.Error())
			time.Sleep(sleep)
		}
	}
	engine = eng

	syncCtx, cancelSync := context.WithCancel(context.Background())
	defer cancelSync()
	go engine.RunSync(syncCtx)

	logger.WithFields(logrus.Fields{"info": "Connection Established"}).Info("listening on :" + port)

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop the sync scheduler first so it doesn't start a reload mid-drain.
	cancelSync()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func writeTransitionError(c *gin.Context, err error) {
	if utils.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if utils.IsRemoteAppendError(err) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// customErrorLogger logs only requests that accumulated gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
