package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"presence/internal/model"
)

// Store is what the service and handlers need from persistence. Repository
// implements it; tests use an in-memory double.
type Store interface {
	Users(ctx context.Context) ([]model.User, error)
	InsertUser(ctx context.Context, u model.User) error
	UserByFingerprint(ctx context.Context, fingerprintID string) (model.User, error)

	Courses(ctx context.Context) ([]model.Course, error)
	InsertCourse(ctx context.Context, c model.Course) (model.Course, error)

	Attendance(ctx context.Context, f Filter) ([]model.AttendanceEntry, error)
	HasAttendance(ctx context.Context, userID, courseID string, from, to time.Time) (bool, error)
	InsertAttendance(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)

	InsertActivity(ctx context.Context, a model.Activity) error
	RecentActivities(ctx context.Context, limit int) ([]model.Activity, error)

	CountUsers(ctx context.Context) (int, error)
	CountCourses(ctx context.Context) (int, error)
	CountAttendanceBetween(ctx context.Context, from, to time.Time) (int, error)
}

// CheckInResult is what both check-in paths report back.
type CheckInResult struct {
	UserName   string
	CourseName string
}

// Service coordinates check-ins: fingerprint lookup, schedule match,
// duplicate guard, record and audit writes.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// DayRange returns the half-open UTC day window containing t.
func DayRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

// CheckIn records attendance for the user owning fingerprintID against the
// course currently in session. Timestamps are server-assigned UTC.
func (s *Service) CheckIn(ctx context.Context, fingerprintID string) (CheckInResult, error) {
	user, err := s.store.UserByFingerprint(ctx, fingerprintID)
	if err != nil {
		return CheckInResult{}, err
	}

	now := s.now().UTC()
	course, err := s.currentCourse(ctx, now)
	if err != nil {
		return CheckInResult{}, err
	}

	from, to := DayRange(now)
	exists, err := s.store.HasAttendance(ctx, user.ID, course.ID, from, to)
	if err != nil {
		return CheckInResult{}, err
	}
	if exists {
		return CheckInResult{}, ErrAlreadyRecorded
	}

	rec := model.AttendanceRecord{
		UserID:    user.ID,
		CourseID:  course.ID,
		Timestamp: now,
		Status:    "present",
	}
	if _, err := s.store.InsertAttendance(ctx, rec); err != nil {
		return CheckInResult{}, err
	}

	activity := model.Activity{
		Type:      "attendance",
		Message:   fmt.Sprintf("Présence enregistrée pour %s", user.Name),
		UserID:    user.ID,
		Timestamp: now,
	}
	if err := s.store.InsertActivity(ctx, activity); err != nil {
		return CheckInResult{}, err
	}

	return CheckInResult{UserName: user.Name, CourseName: course.Name}, nil
}

// currentCourse applies the schedule heuristic: the lowercased UTC weekday
// name as a substring of the course's lowercased free-text schedule, courses
// scanned in creation order, first match wins.
func (s *Service) currentCourse(ctx context.Context, now time.Time) (model.Course, error) {
	courses, err := s.store.Courses(ctx)
	if err != nil {
		return model.Course{}, err
	}

	weekday := strings.ToLower(now.Weekday().String())
	for _, course := range courses {
		if strings.Contains(strings.ToLower(course.Schedule), weekday) {
			return course, nil
		}
	}
	return model.Course{}, ErrNoCourseScheduled
}

// Stats counts users, courses and today's attendance with server-side
// aggregates.
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	userCount, err := s.store.CountUsers(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	courseCount, err := s.store.CountCourses(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	from, to := DayRange(s.now())
	today, err := s.store.CountAttendanceBetween(ctx, from, to)
	if err != nil {
		return model.Stats{}, err
	}
	return model.Stats{
		UserCount:        userCount,
		CourseCount:      courseCount,
		TodayAttendances: today,
	}, nil
}
