// Package sqlstore implements the domain repositories on database/sql. The
// postgres and sqlite packages open the connection and supply the dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"babymeasure/internal/domain"
)

// Dialect holds what differs between the supported databases.
type Dialect struct {
	Name string
	// Migrations run in order on every start and must be idempotent.
	Migrations []string
	// Numbered switches "?" placeholders to "$1", "$2", ...
	Numbered bool
}

// Store implements the measurement, user and pairing repositories.
type Store struct {
	sql     *sql.DB
	dialect Dialect
}

// New wraps an open database.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{sql: db, dialect: d}
}

// Ensure interfaces are met.
var _ domain.MeasurementRepository = (*Store)(nil)
var _ domain.UserRepository = (*Store)(nil)
var _ domain.PairingRepository = (*Store)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Migrations {
		if _, err := s.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.dialect.Name, err)
		}
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.sql.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.sql.Close()
}

func (s *Store) q(query string) string {
	if !s.dialect.Numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// --- MeasurementRepository ---

// valueColumns lists the per-category columns after id, uid and time.
func valueColumns(c domain.Category) []string {
	switch c {
	case domain.CategoryBottle:
		return []string{"type", "amount"}
	case domain.CategoryBreastfeeding:
		return []string{"amount"}
	case domain.CategoryDiaper:
		return []string{"type"}
	case domain.CategoryBody:
		return []string{"height", "weight", "head"}
	}
	return nil
}

func field(r *domain.Record, col string) any {
	switch col {
	case "type":
		return &r.Subtype
	case "amount":
		return &r.Amount
	case "height":
		return &r.Height
	case "weight":
		return &r.Weight
	case "head":
		return &r.Head
	}
	return nil
}

func value(r domain.Record, col string) any {
	switch col {
	case "type":
		return r.Subtype
	case "amount":
		return r.Amount
	case "height":
		return r.Height
	case "weight":
		return r.Weight
	case "head":
		return r.Head
	}
	return nil
}

var errUnknownCategory = errors.New("unknown category")

// AppendMeasurement inserts r and returns the id the database assigned.
func (s *Store) AppendMeasurement(ctx context.Context, r domain.Record) (int64, error) {
	cols := valueColumns(r.Category)
	if cols == nil {
		return 0, errUnknownCategory
	}
	args := []any{r.UID, r.Time.UTC()}
	for _, col := range cols {
		args = append(args, value(r, col))
	}
	query := fmt.Sprintf("INSERT INTO %s (uid, time, %s) VALUES (?, ?%s) RETURNING id",
		r.Category.Table(), strings.Join(cols, ", "), strings.Repeat(", ?", len(cols)))

	var id int64
	if err := s.sql.QueryRowContext(ctx, s.q(query), args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", r.Category.Table(), err)
	}
	return id, nil
}

// ReadMeasurements returns the records of category c matching subtype,
// oldest first.
func (s *Store) ReadMeasurements(ctx context.Context, c domain.Category, subtype string) ([]domain.Record, error) {
	cols := valueColumns(c)
	if cols == nil {
		return nil, errUnknownCategory
	}
	query := fmt.Sprintf("SELECT id, uid, time, %s FROM %s", strings.Join(cols, ", "), c.Table())
	var args []any
	if subtype != "" {
		if c == domain.CategoryBody {
			switch subtype {
			case domain.FieldHeight, domain.FieldWeight, domain.FieldHead:
			default:
				return nil, nil
			}
			query += " WHERE " + subtype + " IS NOT NULL"
		} else {
			query += " WHERE type = ?"
			args = append(args, subtype)
		}
	}
	query += " ORDER BY time, id"

	rows, err := s.sql.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.Table(), err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Record
	for rows.Next() {
		r := domain.Record{Category: c}
		dest := []any{&r.ID, &r.UID, &r.Time}
		for _, col := range cols {
			dest = append(dest, field(&r, col))
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.Table(), err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateMeasurement overwrites time and values of the record with r.ID.
func (s *Store) UpdateMeasurement(ctx context.Context, r domain.Record) error {
	cols := valueColumns(r.Category)
	if cols == nil {
		return errUnknownCategory
	}
	sets := []string{"time = ?"}
	args := []any{r.Time.UTC()}
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, value(r, col))
	}
	args = append(args, r.ID)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", r.Category.Table(), strings.Join(sets, ", "))

	res, err := s.sql.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", r.Category.Table(), r.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update %s %d: record not found", r.Category.Table(), r.ID)
	}
	return nil
}

// DeleteMeasurement removes a record and reports whether it existed.
func (s *Store) DeleteMeasurement(ctx context.Context, c domain.Category, id int64) (bool, error) {
	if valueColumns(c) == nil {
		return false, errUnknownCategory
	}
	res, err := s.sql.ExecContext(ctx, s.q("DELETE FROM "+c.Table()+" WHERE id = ?"), id)
	if err != nil {
		return false, fmt.Errorf("delete %s %d: %w", c.Table(), id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUser(ctx, "username", username)
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) getUser(ctx context.Context, col string, arg any) (*domain.User, error) {
	var u domain.User
	err := s.sql.QueryRowContext(ctx,
		s.q("SELECT id, username, password_hash, created_at FROM users WHERE "+col+" = ?"),
		arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create creates a new user.
func (s *Store) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	var u domain.User
	err := s.sql.QueryRowContext(ctx,
		s.q("INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id, username, password_hash, created_at"),
		username, passwordHash, time.Now().UTC(),
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// --- PairingRepository ---

// GetPairing returns the pairing of a chat user, nil if unknown.
func (s *Store) GetPairing(ctx context.Context, chatUserID int64) (*domain.ChatPairing, error) {
	p := domain.ChatPairing{ChatUserID: chatUserID}
	err := s.sql.QueryRowContext(ctx,
		s.q("SELECT first_name, last_name, login_attempts, allowed, updated_at FROM chat_pairings WHERE chat_user_id = ?"),
		chatUserID,
	).Scan(&p.FirstName, &p.LastName, &p.LoginAttempts, &p.Allowed, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pairing: %w", err)
	}
	return &p, nil
}

// SavePairing inserts or replaces a pairing.
func (s *Store) SavePairing(ctx context.Context, p domain.ChatPairing) error {
	_, err := s.sql.ExecContext(ctx, s.q(`INSERT INTO chat_pairings (chat_user_id, first_name, last_name, login_attempts, allowed, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (chat_user_id) DO UPDATE SET first_name = excluded.first_name, last_name = excluded.last_name,
login_attempts = excluded.login_attempts, allowed = excluded.allowed, updated_at = excluded.updated_at`),
		p.ChatUserID, p.FirstName, p.LastName, p.LoginAttempts, p.Allowed, p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save pairing: %w", err)
	}
	return nil
}

// --- SessionRepository ---

// SessionRepo implements session repository operations on Store.
type SessionRepo struct {
	s *Store
}

// NewSessionRepo wraps a Store as a SessionRepository.
func NewSessionRepo(s *Store) *SessionRepo {
	return &SessionRepo{s: s}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	_, err := r.s.sql.ExecContext(ctx,
		r.s.q("INSERT INTO sessions (token, user_id, user_agent, ip, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		token, userID, userAgent, ip, expiresAt.UTC(), time.Now().UTC(),
	)
	return err
}

// GetByToken retrieves a session by token, nil if unknown.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	err := r.s.sql.QueryRowContext(ctx,
		r.s.q("SELECT token, user_id, user_agent, ip, expires_at, created_at FROM sessions WHERE token = ?"),
		token,
	).Scan(&s.Token, &s.UserID, &s.UserAgent, &s.IP, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.s.sql.ExecContext(ctx, r.s.q("DELETE FROM sessions WHERE token = ?"), token)
	return err
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.s.sql.ExecContext(ctx, r.s.q("DELETE FROM sessions WHERE expires_at < ?"), time.Now().UTC())
	return err
}
