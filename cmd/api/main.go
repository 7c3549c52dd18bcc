package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agenda/internal/auth"
	"agenda/internal/cloudinary"
	"agenda/internal/config"
	"agenda/internal/httpmiddleware"
	"agenda/internal/metrics"
	"agenda/internal/notifier"
	"agenda/internal/queue"
	"agenda/internal/scheduling"
	"agenda/internal/store"
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

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "agenda:events")
	}

	repo := scheduling.NewRepository(db.Client)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		return err
	}
	limits := scheduling.NewLimits(cfg.MaxPerDay)
	svc := scheduling.NewService(repo, limits)

	// Cloudinary client (nil when not configured); photos then stay inline.
	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

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

	r.POST("/v1/login", func(c *gin.Context) {
		var req struct {
			Secret string `json:"secret" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !auth.SecretMatches(req.Secret, cfg.StaffSecret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
			return
		}
		tokens, err := auth.Issue("staff", auth.RoleStaff, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	staff := r.Group("/v1", auth.StaffAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	staff.GET("/students", func(c *gin.Context) {
		students, err := svc.ListStudents(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		// Newest first for the listing view.
		for i, j := 0, len(students)-1; i < j; i, j = i+1, j-1 {
			students[i], students[j] = students[j], students[i]
		}
		c.JSON(http.StatusOK, gin.H{"students": students})
	})

	staff.POST("/students", func(c *gin.Context) {
		var req struct {
			FirstName string `json:"first_name" binding:"required"`
			LastName  string `json:"last_name" binding:"required"`
			Gender    string `json:"gender" binding:"required"`
			Phone     string `json:"phone"`
			Program   string `json:"program" binding:"required"`
			Photo     string `json:"photo"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		n := scheduling.NewStudent{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Gender:    scheduling.Gender(req.Gender),
			Program:   req.Program,
		}
		if req.Phone != "" {
			n.Phone = &req.Phone
		}
		if req.Photo != "" {
			photo := req.Photo
			if cdnClient != nil {
				result, err := cdnClient.UploadBase64(req.Photo)
				if err != nil {
					log.Printf("cloudinary upload failed: %v", err)
					c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
					return
				}
				photo = result.SecureURL
			}
			n.Photo = &photo
		}

		student, err := svc.RegisterStudent(c.Request.Context(), n)
		if err != nil {
			respondError(c, err)
			return
		}
		metrics.StudentsRegistered.Inc()
		c.JSON(http.StatusCreated, student)
	})

	staff.DELETE("/students/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
			return
		}
		if err := svc.DeleteStudent(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		metrics.CompactionRuns.Inc()
		c.JSON(http.StatusOK, gin.H{"message": "student and all their appointments deleted"})
	})

	staff.POST("/students/dedupe", func(c *gin.Context) {
		report, err := svc.ResolveDuplicates(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		metrics.DuplicatesMerged.Add(float64(len(report.Merged)))
		metrics.CompactionRuns.Inc()
		c.JSON(http.StatusOK, report)
	})

	staff.GET("/appointments", func(c *gin.Context) {
		appts, err := svc.ListAppointments(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"appointments": appts})
	})

	staff.GET("/appointments/day/:date", func(c *gin.Context) {
		date, err := scheduling.ParseDate(c.Param("date"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		appts, err := svc.ListForDate(c.Request.Context(), date)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"appointments": appts})
	})

	staff.POST("/appointments", func(c *gin.Context) {
		var req struct {
			StudentID int    `json:"student_id" binding:"required"`
			Date      string `json:"date" binding:"required"`
			Time      string `json:"time" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		date, at, err := parseSlot(req.Date, req.Time)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		appt, err := svc.CreateAppointment(c.Request.Context(), req.StudentID, date, at)
		if err != nil {
			respondError(c, err)
			return
		}
		metrics.AppointmentsBooked.Inc()
		publishEvent(c.Request.Context(), q, notifier.EventBooked, appt)
		c.JSON(http.StatusCreated, appt)
	})

	staff.PUT("/appointments/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
			return
		}
		var req struct {
			StudentID int    `json:"student_id" binding:"required"`
			Date      string `json:"date" binding:"required"`
			Time      string `json:"time" binding:"required"`
			Status    string `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		date, at, err := parseSlot(req.Date, req.Time)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		edit := scheduling.EditAppointment{StudentID: req.StudentID, Date: date, Time: at}
		if req.Status != "" {
			status, err := scheduling.ParseStatus(req.Status)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			edit.Status = &status
		}

		appt, err := svc.UpdateAppointment(c.Request.Context(), id, edit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, appt)
	})

	staff.PUT("/appointments/:id/complete", func(c *gin.Context) {
		appointmentTransition(c, svc, q, scheduling.StatusCompleted)
	})

	staff.PUT("/appointments/:id/cancel", func(c *gin.Context) {
		appointmentTransition(c, svc, q, scheduling.StatusCancelled)
	})

	staff.DELETE("/appointments/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
			return
		}
		if err := svc.DeleteAppointment(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "appointment deleted"})
	})

	staff.GET("/config/max-per-day", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"max_per_day": limits.MaxPerDay()})
	})

	staff.PUT("/config/max-per-day", func(c *gin.Context) {
		var req struct {
			MaxPerDay int `json:"max_per_day" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := limits.SetMaxPerDay(req.MaxPerDay); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"max_per_day": limits.MaxPerDay()})
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// respondError maps scheduling errors to HTTP responses; anything unknown is
// a store failure and surfaces as 500.
func respondError(c *gin.Context, err error) {
	var dup *scheduling.DuplicateStudentError
	var capErr *scheduling.CapacityError
	switch {
	case errors.As(err, &dup):
		metrics.DuplicatesRejected.Inc()
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "duplicate": true, "existing_id": dup.ExistingID})
	case errors.As(err, &capErr):
		metrics.CapacityRejections.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "max_reached": true, "count": capErr.Count, "max": capErr.Max})
	case errors.Is(err, scheduling.ErrPastDate), errors.Is(err, scheduling.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, scheduling.ErrStudentNotFound), errors.Is(err, scheduling.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseSlot(dateStr, timeStr string) (scheduling.Date, scheduling.TimeOfDay, error) {
	date, err := scheduling.ParseDate(dateStr)
	if err != nil {
		return scheduling.Date{}, scheduling.TimeOfDay{}, err
	}
	at, err := scheduling.ParseTimeOfDay(timeStr)
	if err != nil {
		return scheduling.Date{}, scheduling.TimeOfDay{}, err
	}
	return date, at, nil
}

func appointmentTransition(c *gin.Context, svc *scheduling.Service, q queue.Queue, to scheduling.Status) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}

	var appt scheduling.Appointment
	var action string
	if to == scheduling.StatusCompleted {
		appt, err = svc.CompleteAppointment(c.Request.Context(), id)
		action = notifier.EventCompleted
	} else {
		appt, err = svc.CancelAppointment(c.Request.Context(), id)
		action = notifier.EventCancelled
	}
	if err != nil {
		respondError(c, err)
		return
	}
	publishEvent(c.Request.Context(), q, action, appt)
	c.JSON(http.StatusOK, appt)
}

// publishEvent enqueues a notification event; failures are logged, delivery
// is best-effort only.
func publishEvent(ctx context.Context, q queue.Queue, action string, appt scheduling.Appointment) {
	msg, err := queue.NewMessage(action, notifier.AppointmentEvent{
		Action:        action,
		AppointmentID: appt.ID,
		StudentID:     appt.StudentID,
		Date:          appt.Date.String(),
		Time:          appt.Time.String(),
	})
	if err != nil {
		log.Printf("encode event failed: %v", err)
		return
	}
	if err := q.Publish(ctx, msg); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
