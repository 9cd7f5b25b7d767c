package identity

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"presence/internal/store"
)

// Service is the Postgres-backed Provider. Accounts live in their own table,
// separate from the user profiles the attendance side reads.
type Service struct {
	db     *store.DB
	issuer string
	key    string
	ttl    time.Duration
}

// NewService builds a provider signing tokens with the given secret.
func NewService(db *store.DB, issuer, key string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{db: db, issuer: issuer, key: key, ttl: ttl}
}

type account struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	CreatedAt    time.Time `db:"created_at"`
}

// CreateUser registers credentials and returns the new account id.
func (s *Service) CreateUser(ctx context.Context, email, password, name string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	query, args, err := s.db.Builder.
		Insert("accounts").
		Columns("id", "email", "password_hash", "name").
		Values(id, email, string(hash), name).
		ToSql()
	if err != nil {
		return "", err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if store.IsUniqueViolation(err) {
			return "", ErrEmailTaken
		}
		return "", err
	}
	return id, nil
}

// Authenticate exchanges email+password for a bearer token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Token, error) {
	query, args, err := s.db.Builder.
		Select("id", "email", "password_hash", "name", "created_at").
		From("accounts").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return Token{}, err
	}

	var acc account
	if err := s.db.GetContext(ctx, &acc, query, args...); err != nil {
		if store.IsNoRows(err) {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return Token{}, ErrInvalidCredentials
	}
	return issueToken(acc.ID, acc.Email, acc.Name, s.issuer, s.key, s.ttl)
}

// Verify validates a bearer token and returns the caller identity.
func (s *Service) Verify(tokenStr string) (Identity, error) {
	claims, err := parseToken(tokenStr, s.key, s.issuer)
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}
