package services

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/rationbridge/rationbridge-be/internal/auth"
	"github.com/rationbridge/rationbridge-be/internal/identity"
	"github.com/rationbridge/rationbridge-be/internal/models"
)

// CredentialServiceProvider defines the interface for the development
// credential store.
type CredentialServiceProvider interface {
	Login(email, password string) (models.Principal, string, error)
	Register(req identity.SignUpRequest) (models.Principal, string, error)
	GetByID(id string) (models.Credential, error)
}

// CredentialService is the mock identity store: seeded plaintext
// credentials in the local database, matched exactly on login. It backs
// the development fallback path only and never sees real accounts.
type CredentialService struct {
	db *sql.DB
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(db *sql.DB) *CredentialService {
	return &CredentialService{db: db}
}

// Login matches email and password exactly against stored records.
// First match in insert order wins, so a duplicate email is silently
// shadowed by the earlier record. Plaintext comparison, no rate limit.
func (s *CredentialService) Login(email, password string) (models.Principal, string, error) {
	var user models.Principal
	row := s.db.QueryRow(
		"SELECT id, email, full_name, user_type FROM credentials WHERE email = ? AND password = ? ORDER BY rowid LIMIT 1",
		email, password,
	)
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.UserType)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Principal{}, "", ErrInvalidCredentials
		}
		return models.Principal{}, "", err
	}
	return user, auth.MockTokenPrefix + user.ID, nil
}

// Register appends a new credential record unconditionally. No
// uniqueness check: registering an existing email just shadows it.
// Two registrations within the same millisecond collide on id, which is
// acceptable for a development-only path.
func (s *CredentialService) Register(req identity.SignUpRequest) (models.Principal, string, error) {
	id := "mock-" + strconv.FormatInt(time.Now().UnixMilli(), 10)

	_, err := s.db.Exec(
		"INSERT INTO credentials (id, email, password, full_name, user_type, phone, address) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, req.Email, req.Password, req.FullName, req.UserType, req.Phone, req.Address,
	)
	if err != nil {
		return models.Principal{}, "", err
	}

	user := models.Principal{
		ID:       id,
		Email:    req.Email,
		FullName: req.FullName,
		UserType: req.UserType,
	}
	return user, auth.MockTokenPrefix + id, nil
}

// GetByID retrieves a stored credential record.
func (s *CredentialService) GetByID(id string) (models.Credential, error) {
	var cred models.Credential
	row := s.db.QueryRow(
		"SELECT id, email, password, full_name, user_type, COALESCE(phone, ''), COALESCE(address, '') FROM credentials WHERE id = ?", id,
	)
	err := row.Scan(&cred.ID, &cred.Email, &cred.Password, &cred.FullName, &cred.UserType, &cred.Phone, &cred.Address)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Credential{}, ErrNotFound
		}
		return models.Credential{}, err
	}
	return cred, nil
}
