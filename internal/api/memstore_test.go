package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"presence/internal/attendance"
	"presence/internal/identity"
	"presence/internal/model"
)

// memStore is an in-memory attendance.Store for handler tests.
type memStore struct {
	mu         sync.Mutex
	users      []model.User
	courses    []model.Course
	records    []model.AttendanceRecord
	activities []model.Activity
}

func newMemStore() *memStore { return &memStore{} }

func (m *memStore) Users(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.User{}, m.users...), nil
}

func (m *memStore) InsertUser(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Role == "" {
		u.Role = "user"
	}
	for _, existing := range m.users {
		if existing.FingerprintID != nil && u.FingerprintID != nil && *existing.FingerprintID == *u.FingerprintID {
			return attendance.ErrFingerprintTaken
		}
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.users = append(m.users, u)
	return nil
}

func (m *memStore) UserByFingerprint(_ context.Context, fingerprintID string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.FingerprintID != nil && *u.FingerprintID == fingerprintID {
			return u, nil
		}
	}
	return model.User{}, attendance.ErrUserNotFound
}

func (m *memStore) Courses(context.Context) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Course{}, m.courses...), nil
}

func (m *memStore) InsertCourse(_ context.Context, c model.Course) (model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	m.courses = append(m.courses, c)
	return c, nil
}

func (m *memStore) Attendance(_ context.Context, f attendance.Filter) ([]model.AttendanceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := []model.AttendanceEntry{}
	for _, rec := range m.records {
		if f.From != nil && rec.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && !rec.Timestamp.Before(*f.To) {
			continue
		}
		if f.CourseID != "" && rec.CourseID != f.CourseID {
			continue
		}
		entry := model.AttendanceEntry{AttendanceRecord: rec}
		for _, u := range m.users {
			if u.ID == rec.UserID {
				name := u.Name
				entry.UserName = &name
			}
		}
		for _, c := range m.courses {
			if c.ID == rec.CourseID {
				name, code := c.Name, c.Code
				entry.CourseName = &name
				entry.CourseCode = &code
			}
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (m *memStore) HasAttendance(_ context.Context, userID, courseID string, from, to time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.UserID == userID && rec.CourseID == courseID &&
			!rec.Timestamp.Before(from) && rec.Timestamp.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertAttendance(_ context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = "present"
	}
	rec.CreatedAt = time.Now().UTC()
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memStore) InsertActivity(_ context.Context, a model.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.activities = append(m.activities, a)
	return nil
}

func (m *memStore) RecentActivities(_ context.Context, limit int) ([]model.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	activities := append([]model.Activity{}, m.activities...)
	sort.Slice(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

func (m *memStore) CountUsers(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *memStore) CountCourses(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.courses), nil
}

func (m *memStore) CountAttendanceBetween(_ context.Context, from, to time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, rec := range m.records {
		if !rec.Timestamp.Before(from) && rec.Timestamp.Before(to) {
			count++
		}
	}
	return count, nil
}

// stubProvider verifies the fixed token "valid-token" and accepts the
// password "secret" for any email.
type stubProvider struct{}

func (stubProvider) CreateUser(_ context.Context, _, _, _ string) (string, error) {
	return uuid.NewString(), nil
}

func (stubProvider) Authenticate(_ context.Context, email, password string) (identity.Token, error) {
	if password != "secret" {
		return identity.Token{}, identity.ErrInvalidCredentials
	}
	return identity.Token{Value: "valid-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (stubProvider) Verify(tokenStr string) (identity.Identity, error) {
	if tokenStr != "valid-token" {
		return identity.Identity{}, identity.ErrInvalidToken
	}
	return identity.Identity{ID: "admin-id", Email: "admin@example.com", Name: "Admin"}, nil
}
