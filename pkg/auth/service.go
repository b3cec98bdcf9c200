package auth

import (
	"time"

	"github.com/google/uuid"
)

// AdminOp is an operation administer() can apply to a target user.
type AdminOp string

const (
	OpActivate    AdminOp = "activate"
	OpDeactivate  AdminOp = "deactivate"
	OpGrantAdmin  AdminOp = "grant_admin"
	OpRevokeAdmin AdminOp = "revoke_admin"
	OpDelete      AdminOp = "delete"
)

// destructive ops require both a self-target check and a sole-super-admin
// check before they are allowed to proceed.
var destructiveOps = map[AdminOp]bool{
	OpDeactivate:  true,
	OpRevokeAdmin: true,
	OpDelete:      true,
}

// Profile carries the registration-time fields beyond email/password.
type Profile struct {
	FullName string
}

// Service implements the gateway's identity operations: register,
// authenticate, administer. It is the single place password policy, role
// checks, and token issuance are enforced.
type Service struct {
	store  *Store
	issuer *TokenIssuer
}

// NewService builds an identity Service over a Store and TokenIssuer.
func NewService(store *Store, issuer *TokenIssuer) *Service {
	return &Service{store: store, issuer: issuer}
}

// Register creates a new user with role "user", rejecting duplicate emails
// and weak passwords. The password is never stored, only its bcrypt hash.
func (s *Service) Register(email, password string, profile Profile) (*User, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     profile.FullName,
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Insert(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies credentials and returns a signed token embedding
// {subject, role, expires_at}. Rejects unknown emails, wrong passwords, and
// inactive accounts, and updates last_login on success.
func (s *Service) Authenticate(email, password string) (string, *User, error) {
	u, err := s.store.ByEmail(email)
	if err != nil {
		return "", nil, ErrUnauthorized
	}
	if !checkPassword(u.PasswordHash, password) {
		return "", nil, ErrUnauthorized
	}
	if !u.IsActive {
		return "", nil, ErrInactiveUser
	}

	now := time.Now().UTC()
	if err := s.store.RecordLogin(u.ID, now); err != nil {
		return "", nil, err
	}
	u.LastLogin = &now

	token, err := s.issuer.Issue(u.ID, string(u.Role), now)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Me verifies a token and returns the current user record for its subject.
// Role/active-status changes since the token was issued are reflected
// immediately (the token itself is not re-checked against the store for
// revocation — see the documented role-demotion limitation).
func (s *Service) Me(token string) (*User, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.store.ByID(claims.Subject)
}

// Administer applies an admin operation to a target user on behalf of an
// actor. The actor must be role >= admin; destructive ops may not target
// the actor's own account, and no op may demote or delete the sole
// super-admin. Role changes do not revoke tokens already issued: a token
// keeps the role it was issued with until it expires.
func (s *Service) Administer(actorToken, targetUserID string, op AdminOp) (*User, error) {
	claims, err := s.issuer.Verify(actorToken)
	if err != nil {
		return nil, err
	}
	actor, err := s.store.ByID(claims.Subject)
	if err != nil {
		return nil, err
	}
	if !actor.Role.AtLeast(RoleAdmin) {
		return nil, ErrForbidden
	}

	target, err := s.store.ByID(targetUserID)
	if err != nil {
		return nil, err
	}

	if destructiveOps[op] && actor.ID == target.ID {
		return nil, ErrSelfTarget
	}

	if target.Role == RoleSuperAdmin && (op == OpDeactivate || op == OpGrantAdmin || op == OpRevokeAdmin || op == OpDelete) {
		count, err := s.store.CountSuperAdmins()
		if err != nil {
			return nil, err
		}
		if count <= 1 {
			return nil, ErrSoleSuperAdmin
		}
	}

	switch op {
	case OpActivate:
		err = s.store.SetActive(target.ID, true)
	case OpDeactivate:
		err = s.store.SetActive(target.ID, false)
	case OpGrantAdmin:
		err = s.store.UpdateRole(target.ID, RoleAdmin)
	case OpRevokeAdmin:
		err = s.store.UpdateRole(target.ID, RoleUser)
	case OpDelete:
		err = s.store.Delete(target.ID)
	default:
		return nil, ErrUnknownOperation
	}
	if err != nil {
		return nil, err
	}
	if op == OpDelete {
		return target, nil
	}
	return s.store.ByID(target.ID)
}

// List returns all users (admin-only; the HTTP layer enforces the role
// check before calling this).
func (s *Service) List() ([]*User, error) {
	return s.store.List()
}
