package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendanceledger/internal/audit"
	"attendanceledger/internal/auth"
	"attendanceledger/internal/config"
	"attendanceledger/internal/httpmiddleware"
	"attendanceledger/internal/ledger"
	"attendanceledger/internal/queue"
	"attendanceledger/internal/report"
	"attendanceledger/internal/requests"
	"attendanceledger/internal/store"
	"attendanceledger/internal/util"
)

var (
	checkinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_checkins_total",
		Help: "Attendance events recorded, by kind.",
	}, []string{"kind"})
	tokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_tokens_issued_total",
		Help: "Daily check-in tokens issued.",
	})
	reviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_reviews_total",
		Help: "Request reviews, by workflow and decision.",
	}, []string{"workflow", "decision"})
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:audit")
	}

	repo := ledger.NewRepository(db.Client)
	reqRepo := requests.NewRepository(db.Client)
	auditRepo := audit.NewRepository(db.Client)

	issuer := ledger.NewIssuer(repo, cfg.TokenTTL)
	checkins := ledger.NewProcessor(repo)
	leaves := requests.NewLeaveWorkflow(reqRepo, cfg.LeaveReasonMin, cfg.LeaveReasonMax)
	corrections := requests.NewCorrectionWorkflow(reqRepo, repo, cfg.CorrectionReasonMin, cfg.LeaveReasonMax, cfg.CorrectionApply)
	reports := report.NewService(repo, repo, reqRepo)

	ctx := context.Background()
	publish := func(msg queue.Message) {
		if err := q.Publish(ctx, msg); err != nil {
			log.Printf("queue publish failed: %v", err)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Gin())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := repo.UserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		studentID := ""
		if user.StudentID != nil {
			studentID = *user.StudentID
		}
		token, exp, err := auth.Issue(user.ID, user.Role, studentID, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"expires_at":   exp.Unix(),
			"role":         user.Role,
		})
	})

	authed := r.Group("/v1", auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer))
	admin := authed.Group("", auth.RequireRole(auth.RoleAdmin))
	student := authed.Group("", auth.RequireRole(auth.RoleStudent))

	admin.POST("/tokens", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		tok, err := issuer.Issue(c.Request.Context(), claims.Subject)
		if err != nil {
			writeErr(c, err)
			return
		}
		tokensIssuedTotal.Inc()
		publish(queue.Message{Type: queue.TypeTokenIssued, SubjectID: tok.ID})
		c.JSON(http.StatusCreated, tok)
	})

	admin.GET("/tokens/active", func(c *gin.Context) {
		tok, err := repo.ActiveToken(c.Request.Context())
		if err != nil {
			writeErr(c, err)
			return
		}
		if tok == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active token", "code": "not_found"})
			return
		}
		c.JSON(http.StatusOK, tok)
	})

	student.POST("/checkins", func(c *gin.Context) {
		var req struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims, _ := auth.FromContext(c)
		evt, err := checkins.Redeem(c.Request.Context(), claims.StudentID, req.Code)
		if err != nil {
			writeErr(c, err)
			return
		}
		checkinsTotal.WithLabelValues(string(evt.Kind)).Inc()
		publish(queue.Message{Type: queue.TypeCheckin, SubjectID: evt.ID, Detail: string(evt.Kind)})
		c.JSON(http.StatusCreated, evt)
	})

	student.POST("/kitchen-duty", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		evt, err := checkins.MarkKitchenDuty(c.Request.Context(), claims.StudentID)
		if err != nil {
			writeErr(c, err)
			return
		}
		checkinsTotal.WithLabelValues(string(evt.Kind)).Inc()
		publish(queue.Message{Type: queue.TypeCheckin, SubjectID: evt.ID, Detail: string(evt.Kind)})
		c.JSON(http.StatusCreated, evt)
	})

	student.POST("/leaves", func(c *gin.Context) {
		var req struct {
			LeaveType string `json:"leave_type" binding:"required"`
			Reason    string `json:"reason" binding:"required"`
			StartDate string `json:"start_date" binding:"required"`
			EndDate   string `json:"end_date" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start, err := util.ParseDay(req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD", "code": "validation"})
			return
		}
		end, err := util.ParseDay(req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD", "code": "validation"})
			return
		}
		claims, _ := auth.FromContext(c)
		lr, err := leaves.Submit(c.Request.Context(), claims.StudentID, requests.LeaveType(req.LeaveType), req.Reason, start, end)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, lr)
	})

	admin.GET("/leaves", func(c *gin.Context) {
		list, err := reqRepo.ListLeaves(c.Request.Context(), requests.Status(c.Query("status")), c.Query("student_id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"leaves": list})
	})

	admin.POST("/leaves/:id/review", func(c *gin.Context) {
		var req struct {
			Decision string `json:"decision" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims, _ := auth.FromContext(c)
		lr, err := leaves.Review(c.Request.Context(), c.Param("id"), claims.Subject, requests.Status(req.Decision))
		if err != nil {
			writeErr(c, err)
			return
		}
		reviewsTotal.WithLabelValues("leave", req.Decision).Inc()
		publish(queue.Message{Type: queue.TypeLeaveReview, SubjectID: lr.ID, Detail: req.Decision})
		c.JSON(http.StatusOK, lr)
	})

	student.POST("/corrections", func(c *gin.Context) {
		var req struct {
			AttendanceDate string `json:"attendance_date" binding:"required"`
			Reason         string `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		date, err := util.ParseDay(req.AttendanceDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "attendance_date must be YYYY-MM-DD", "code": "validation"})
			return
		}
		claims, _ := auth.FromContext(c)
		cr, err := corrections.Submit(c.Request.Context(), claims.StudentID, date, req.Reason)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, cr)
	})

	admin.GET("/corrections", func(c *gin.Context) {
		list, err := reqRepo.ListCorrections(c.Request.Context(), requests.Status(c.Query("status")), c.Query("student_id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"corrections": list})
	})

	admin.POST("/corrections/:id/review", func(c *gin.Context) {
		var req struct {
			Decision string `json:"decision" binding:"required"`
			Notes    string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims, _ := auth.FromContext(c)
		cr, err := corrections.Review(c.Request.Context(), c.Param("id"), claims.Subject, requests.Status(req.Decision), req.Notes)
		if err != nil {
			writeErr(c, err)
			return
		}
		reviewsTotal.WithLabelValues("correction", req.Decision).Inc()
		publish(queue.Message{Type: queue.TypeCorrectionReview, SubjectID: cr.ID, Detail: req.Decision})
		c.JSON(http.StatusOK, cr)
	})

	admin.GET("/students", func(c *gin.Context) {
		list, err := repo.ListStudents(c.Request.Context())
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"students": list})
	})

	admin.GET("/overview", func(c *gin.Context) {
		today := util.DayOf(time.Now())
		present, kitchen, err := repo.CountEventsForDay(c.Request.Context(), today)
		if err != nil {
			writeErr(c, err)
			return
		}
		pending, err := reqRepo.ListLeaves(c.Request.Context(), requests.StatusPending, "")
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"date":           util.FormatDay(today),
			"present":        present,
			"kitchen_duty":   kitchen,
			"pending_leaves": len(pending),
		})
	})

	admin.GET("/audit", func(c *gin.Context) {
		entries, err := auditRepo.Recent(c.Request.Context(), 50)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	})

	// Summary and records: admins see anyone, students only themselves.
	authed.GET("/students/:id/summary", func(c *gin.Context) {
		id := c.Param("id")
		if !canViewStudent(c, id) {
			return
		}
		sum, err := reports.Summary(c.Request.Context(), id)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	})

	authed.GET("/students/:id/records", func(c *gin.Context) {
		id := c.Param("id")
		if !canViewStudent(c, id) {
			return
		}
		filter := report.Filter{Category: c.Query("status")}
		if v := c.Query("from"); v != "" {
			d, err := util.ParseDay(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD", "code": "validation"})
				return
			}
			filter.From = &d
		}
		if v := c.Query("to"); v != "" {
			d, err := util.ParseDay(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD", "code": "validation"})
				return
			}
			filter.To = &d
		}
		recs, err := reports.Records(c.Request.Context(), id, filter)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": recs})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}
	log.Println("server exited")
	return nil
}

// canViewStudent enforces self-only access for students; admins pass.
func canViewStudent(c *gin.Context, studentID string) bool {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return false
	}
	if claims.Role == auth.RoleAdmin || claims.StudentID == studentID {
		return true
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not your record"})
	return false
}

// writeErr maps domain errors to distinct HTTP responses so the client
// can show the right copy per case.
func writeErr(c *gin.Context, err error) {
	switch {
	case ledger.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
	case errors.Is(err, ledger.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_token"})
	case errors.Is(err, ledger.ErrExpiredToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "expired_token"})
	case errors.Is(err, ledger.ErrAlreadyMarked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "already_marked"})
	case errors.Is(err, requests.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_transition"})
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "persistence"})
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
