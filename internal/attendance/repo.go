package attendance

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"presence/internal/model"
	"presence/internal/store"
)

// Repository persists users, courses, attendance and activities in Postgres.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// Users returns every user profile.
func (r *Repository) Users(ctx context.Context) ([]model.User, error) {
	query, args, err := r.db.Builder.
		Select("id", "name", "email", "role", "fingerprint_id", "created_at", "updated_at").
		From("users").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

// InsertUser writes a profile keyed by the provider-issued id.
func (r *Repository) InsertUser(ctx context.Context, u model.User) error {
	if u.Role == "" {
		u.Role = "user"
	}
	query, args, err := r.db.Builder.
		Insert("users").
		Columns("id", "name", "email", "role", "fingerprint_id").
		Values(u.ID, u.Name, u.Email, u.Role, u.FingerprintID).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if store.IsUniqueViolation(err) {
			return ErrFingerprintTaken
		}
		return err
	}
	return nil
}

// UserByFingerprint looks up the single user owning a fingerprint id.
func (r *Repository) UserByFingerprint(ctx context.Context, fingerprintID string) (model.User, error) {
	query, args, err := r.db.Builder.
		Select("id", "name", "email", "role", "fingerprint_id", "created_at", "updated_at").
		From("users").
		Where(squirrel.Eq{"fingerprint_id": fingerprintID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		if store.IsNoRows(err) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return u, nil
}

// Courses returns all courses in creation order, so the schedule match is
// deterministic.
func (r *Repository) Courses(ctx context.Context) ([]model.Course, error) {
	query, args, err := r.db.Builder.
		Select("id", "code", "name", "schedule", "description", "created_at", "updated_at").
		From("courses").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	courses := []model.Course{}
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, err
	}
	return courses, nil
}

// InsertCourse writes a course with a server-generated id.
func (r *Repository) InsertCourse(ctx context.Context, c model.Course) (model.Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	query, args, err := r.db.Builder.
		Insert("courses").
		Columns("id", "code", "name", "schedule", "description").
		Values(c.ID, c.Code, c.Name, c.Schedule, c.Description).
		ToSql()
	if err != nil {
		return model.Course{}, err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return model.Course{}, err
	}
	return c, nil
}

// Filter narrows the attendance listing.
type Filter struct {
	From     *time.Time
	To       *time.Time
	CourseID string
}

// Attendance lists records with user and course names joined in. Dangling
// references leave the denormalized fields nil.
func (r *Repository) Attendance(ctx context.Context, f Filter) ([]model.AttendanceEntry, error) {
	builder := r.db.Builder.
		Select(
			"a.id", "a.user_id", "a.course_id", "a.timestamp", "a.status", "a.created_at",
			"u.name AS user_name",
			"c.name AS course_name",
			"c.code AS course_code",
		).
		From("attendance a").
		LeftJoin("users u ON u.id = a.user_id").
		LeftJoin("courses c ON c.id = a.course_id").
		OrderBy("a.timestamp DESC")

	if f.From != nil {
		builder = builder.Where(squirrel.GtOrEq{"a.timestamp": *f.From})
	}
	if f.To != nil {
		builder = builder.Where(squirrel.Lt{"a.timestamp": *f.To})
	}
	if f.CourseID != "" {
		builder = builder.Where(squirrel.Eq{"a.course_id": f.CourseID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	entries := []model.AttendanceEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// HasAttendance reports whether a record exists for the user and course in
// the half-open window [from, to).
func (r *Repository) HasAttendance(ctx context.Context, userID, courseID string, from, to time.Time) (bool, error) {
	query, args, err := r.db.Builder.
		Select("COUNT(*)").
		From("attendance").
		Where(squirrel.Eq{"user_id": userID, "course_id": courseID}).
		Where(squirrel.GtOrEq{"timestamp": from}).
		Where(squirrel.Lt{"timestamp": to}).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertAttendance writes a record. The unique (user, course, day) index
// backstops the read-side duplicate check under concurrent check-ins.
func (r *Repository) InsertAttendance(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = "present"
	}
	query, args, err := r.db.Builder.
		Insert("attendance").
		Columns("id", "user_id", "course_id", "timestamp", "status").
		Values(rec.ID, rec.UserID, rec.CourseID, rec.Timestamp, rec.Status).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&rec.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return model.AttendanceRecord{}, ErrAlreadyRecorded
		}
		return model.AttendanceRecord{}, err
	}
	return rec, nil
}

// InsertActivity appends an audit entry.
func (r *Repository) InsertActivity(ctx context.Context, a model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query, args, err := r.db.Builder.
		Insert("activities").
		Columns("id", "type", "message", "user_id", "timestamp").
		Values(a.ID, a.Type, a.Message, a.UserID, a.Timestamp).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// RecentActivities returns the newest entries, newest first.
func (r *Repository) RecentActivities(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	query, args, err := r.db.Builder.
		Select("id", "type", "message", "user_id", "timestamp").
		From("activities").
		OrderBy("timestamp DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	activities := []model.Activity{}
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, err
	}
	return activities, nil
}

// CountUsers counts user profiles server-side.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, r.db.Builder.Select("COUNT(*)").From("users"))
}

// CountCourses counts courses server-side.
func (r *Repository) CountCourses(ctx context.Context) (int, error) {
	return r.count(ctx, r.db.Builder.Select("COUNT(*)").From("courses"))
}

// CountAttendanceBetween counts records in the half-open window [from, to).
func (r *Repository) CountAttendanceBetween(ctx context.Context, from, to time.Time) (int, error) {
	return r.count(ctx, r.db.Builder.
		Select("COUNT(*)").
		From("attendance").
		Where(squirrel.GtOrEq{"timestamp": from}).
		Where(squirrel.Lt{"timestamp": to}))
}

func (r *Repository) count(ctx context.Context, builder squirrel.SelectBuilder) (int, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}
