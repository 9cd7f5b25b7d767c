package model

import "time"

// User is a person known to the system. The ID is issued by the identity
// provider when the account is created; FingerprintID is the opaque string
// reported by the capture device.
type User struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	Role          string    `db:"role" json:"role"`
	FingerprintID *string   `db:"fingerprint_id" json:"fingerprint_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Course carries a free-text schedule string; check-in matches the current
// weekday name against it.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Schedule    string    `db:"schedule" json:"schedule"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord is one check-in. Timestamps are server-assigned UTC.
type AttendanceRecord struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AttendanceEntry is an AttendanceRecord denormalized with the referenced
// user and course. The pointers stay nil when the reference is dangling.
type AttendanceEntry struct {
	AttendanceRecord
	UserName   *string `db:"user_name" json:"user_name,omitempty"`
	CourseName *string `db:"course_name" json:"course_name,omitempty"`
	CourseCode *string `db:"course_code" json:"course_code,omitempty"`
}

// Activity is an append-only audit entry, read back newest-first.
type Activity struct {
	ID        string    `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	Message   string    `db:"message" json:"message"`
	UserID    string    `db:"user_id" json:"user_id"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Stats are the dashboard counters.
type Stats struct {
	UserCount        int `json:"user_count"`
	CourseCount      int `json:"course_count"`
	TodayAttendances int `json:"today_attendances"`
}
