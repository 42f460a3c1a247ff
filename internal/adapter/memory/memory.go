// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"babymeasure/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	records  map[domain.Category][]domain.Record
	users    []*domain.User
	sessions map[string]*domain.Session
	pairings map[int64]domain.ChatPairing

	recordIDCounter map[domain.Category]int64
	userIDCounter   int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		records:         make(map[domain.Category][]domain.Record),
		sessions:        make(map[string]*domain.Session),
		pairings:        make(map[int64]domain.ChatPairing),
		recordIDCounter: make(map[domain.Category]int64),
	}
}

// Ensure interfaces are met.
var _ domain.MeasurementRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.PairingRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

var errUnknownCategory = errors.New("unknown category")

// --- MeasurementRepository ---

// AppendMeasurement stores r and returns its id. Ids increase per category.
func (db *DB) AppendMeasurement(ctx context.Context, r domain.Record) (int64, error) {
	if r.Category == domain.CategoryUnknown {
		return 0, errUnknownCategory
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	db.recordIDCounter[r.Category]++
	r.ID = db.recordIDCounter[r.Category]
	db.records[r.Category] = append(db.records[r.Category], clone(r))
	return r.ID, nil
}

// ReadMeasurements returns the records of category c matching subtype,
// oldest first. Records with equal times keep their insertion order.
func (db *DB) ReadMeasurements(ctx context.Context, c domain.Category, subtype string) ([]domain.Record, error) {
	if c == domain.CategoryUnknown {
		return nil, errUnknownCategory
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.Record, 0, len(db.records[c]))
	for _, r := range db.records[c] {
		if r.MatchesSubtype(subtype) {
			out = append(out, clone(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// UpdateMeasurement replaces the stored record with the same category and id.
func (db *DB) UpdateMeasurement(ctx context.Context, r domain.Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, old := range db.records[r.Category] {
		if old.ID == r.ID {
			r.UID = old.UID
			db.records[r.Category][i] = clone(r)
			return nil
		}
	}
	return errors.New("record not found")
}

// DeleteMeasurement removes a record and reports whether it existed.
func (db *DB) DeleteMeasurement(ctx context.Context, c domain.Category, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rs := db.records[c]
	for i, r := range rs {
		if r.ID == id {
			db.records[c] = append(rs[:i], rs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// clone copies r including the values behind its pointers.
func clone(r domain.Record) domain.Record {
	r.Amount = copyFloat(r.Amount)
	r.Height = copyFloat(r.Height)
	r.Weight = copyFloat(r.Weight)
	r.Head = copyFloat(r.Head)
	return r
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- PairingRepository ---

// GetPairing returns the pairing of a chat user, nil if unknown.
func (db *DB) GetPairing(ctx context.Context, chatUserID int64) (*domain.ChatPairing, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.pairings[chatUserID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SavePairing inserts or replaces a pairing.
func (db *DB) SavePairing(ctx context.Context, p domain.ChatPairing) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.pairings[p.ChatUserID] = p
	return nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return nil, errors.New("session not found")
	}
	return s, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
