package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"presence/internal/attendance"
	"presence/internal/identity"
	"presence/internal/metrics"
	"presence/internal/model"
)

func (s *Server) banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "API du Système de Contrôle de Présence",
		"version": "1.0.0",
		"status":  "online",
	})
}

func (s *Server) health(c *gin.Context) {
	dbHealthy, redisHealthy := true, true
	if s.opts.HealthCheck != nil {
		dbHealthy, redisHealthy = s.opts.HealthCheck(c)
	}
	status := http.StatusOK
	if !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"db":        dbHealthy,
		"redis":     redisHealthy,
	})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := s.opts.Provider.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token.Value,
		"expires_at": token.ExpiresAt.Unix(),
	})
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.opts.Store.Users(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) createUser(c *gin.Context) {
	var req struct {
		Email         string `json:"email" binding:"required"`
		Password      string `json:"password" binding:"required"`
		Name          string `json:"name"`
		Role          string `json:"role"`
		FingerprintID string `json:"fingerprint_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	uid, err := s.opts.Provider.CreateUser(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user := model.User{
		ID:    uid,
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	}
	if req.FingerprintID != "" {
		user.FingerprintID = &req.FingerprintID
	}
	// No compensating rollback: a failed profile write leaves the account
	// orphaned, as in the original system.
	if err := s.opts.Store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, attendance.ErrFingerprintTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if caller, ok := c.Get(identityKey); ok {
		if id, ok := caller.(identity.Identity); ok {
			log.Info().Str("created_by", id.ID).Str("user_id", uid).Msg("user created")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user_id": uid,
		"message": "Utilisateur créé avec succès",
	})
}

func (s *Server) listCourses(c *gin.Context) {
	courses, err := s.opts.Store.Courses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (s *Server) createCourse(c *gin.Context) {
	var req struct {
		Code        string `json:"code" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Schedule    string `json:"schedule"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := s.opts.Store.InsertCourse(c.Request.Context(), model.Course{
		Code:        req.Code,
		Name:        req.Name,
		Schedule:    req.Schedule,
		Description: req.Description,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"course_id": course.ID,
		"message":   "Cours créé avec succès",
	})
}

func (s *Server) listAttendance(c *gin.Context) {
	var filter attendance.Filter
	if date := c.Query("date"); date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Format de date invalide"})
			return
		}
		from, to := attendance.DayRange(day)
		filter.From, filter.To = &from, &to
	}
	filter.CourseID = c.Query("course_id")

	entries, err := s.opts.Store.Attendance(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	unknown := "Inconnu"
	for i := range entries {
		if entries[i].UserName == nil {
			entries[i].UserName = &unknown
		}
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) recordAttendance(c *gin.Context) {
	var req struct {
		FingerprintID string `json:"fingerprint_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.FingerprintID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID d'empreinte manquant"})
		return
	}

	result, err := s.opts.Service.CheckIn(c.Request.Context(), req.FingerprintID)
	if err != nil {
		checkinError(c, err)
		return
	}

	metrics.CheckinTotal.WithLabelValues("recorded").Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Présence enregistrée avec succès",
		"user_name":   result.UserName,
		"course_name": result.CourseName,
	})
}

// deviceAttendance is the device path: same check-in operation, gated by the
// shared key instead of a bearer token.
func (s *Server) deviceAttendance(c *gin.Context) {
	var req struct {
		FingerprintID string `json:"fingerprint_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.FingerprintID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID d'empreinte manquant"})
		return
	}

	if _, err := s.opts.Service.CheckIn(c.Request.Context(), req.FingerprintID); err != nil {
		checkinError(c, err)
		return
	}

	metrics.CheckinTotal.WithLabelValues("recorded").Inc()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Présence enregistrée",
	})
}

func checkinError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendance.ErrUserNotFound):
		metrics.CheckinTotal.WithLabelValues("unknown_user").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur non trouvé"})
	case errors.Is(err, attendance.ErrNoCourseScheduled):
		metrics.CheckinTotal.WithLabelValues("no_course").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun cours programmé à cette heure"})
	case errors.Is(err, attendance.ErrAlreadyRecorded):
		metrics.CheckinTotal.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Présence déjà enregistrée aujourd'hui"})
	default:
		metrics.CheckinTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.opts.Service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) listActivities(c *gin.Context) {
	activities, err := s.opts.Store.RecentActivities(c.Request.Context(), 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, activities)
}
