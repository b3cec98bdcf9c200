package auth

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the durable identity table. It is safe for concurrent use by
// multiple request-handling workers; all mutation goes through SQL
// statements, so correctness relies on SQLite's own locking rather than an
// in-process mutex.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if necessary) the user table at dsn and ensures
// exactly one super-admin exists, auto-provisioning one on cold start per
// the User invariant. superAdminEmail/superAdminPassword are only used the
// first time the table is empty.
func OpenStore(dsn, superAdminEmail, superAdminPassword string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open user store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.ensureSuperAdmin(superAdminEmail, superAdminPassword); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name     TEXT NOT NULL,
	role          TEXT NOT NULL,
	is_active     INTEGER NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	last_login    TIMESTAMP
)`)
	if err != nil {
		return fmt.Errorf("failed to migrate user store: %w", err)
	}
	return nil
}

func (s *Store) ensureSuperAdmin(email, password string) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE role = ?`, string(RoleSuperAdmin)).Scan(&count); err != nil {
		return fmt.Errorf("failed to count super-admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash super-admin password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		FullName:     "Super Admin",
		Role:         RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	return s.insert(u)
}

func (s *Store) insert(u *User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, password_hash, full_name, role, is_active, created_at, last_login)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, string(u.Role), boolToInt(u.IsActive), u.CreatedAt, u.LastLogin,
	)
	return err
}

// ByEmail looks up a user by case-insensitive email. Returns ErrUserNotFound
// if none matches.
func (s *Store) ByEmail(email string) (*User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, password_hash, full_name, role, is_active, created_at, last_login FROM users WHERE email = ?`,
		normalizeEmail(email),
	)
	return scanUser(row)
}

// ByID looks up a user by id. Returns ErrUserNotFound if none matches.
func (s *Store) ByID(id string) (*User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, password_hash, full_name, role, is_active, created_at, last_login FROM users WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

// List returns all users ordered by creation time.
func (s *Store) List() ([]*User, error) {
	rows, err := s.db.Query(
		`SELECT id, email, password_hash, full_name, role, is_active, created_at, last_login FROM users ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountSuperAdmins returns how many super-admin accounts exist, active or
// not.
func (s *Store) CountSuperAdmins() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE role = ?`, string(RoleSuperAdmin)).Scan(&count)
	return count, err
}

// Insert adds a new user. Returns ErrDuplicateEmail if the email is taken.
func (s *Store) Insert(u *User) error {
	if _, err := s.ByEmail(u.Email); err == nil {
		return ErrDuplicateEmail
	} else if err != ErrUserNotFound {
		return err
	}
	return s.insert(u)
}

// UpdateRole sets a user's role.
func (s *Store) UpdateRole(id string, role Role) error {
	_, err := s.db.Exec(`UPDATE users SET role = ? WHERE id = ?`, string(role), id)
	return err
}

// SetActive sets a user's is_active flag.
func (s *Store) SetActive(id string, active bool) error {
	_, err := s.db.Exec(`UPDATE users SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	return err
}

// Delete removes a user.
func (s *Store) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	return err
}

// RecordLogin stamps last_login to now.
func (s *Store) RecordLogin(id string, when time.Time) error {
	_, err := s.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, when, id)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row *sql.Row) (*User, error) {
	return scanUserRows(row)
}

func scanUserRows(row rowScanner) (*User, error) {
	var (
		u         User
		role      string
		isActive  int
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &role, &isActive, &u.CreatedAt, &lastLogin)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Role = Role(role)
	u.IsActive = isActive != 0
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
