package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/rationbridge/rationbridge-be/internal/identity"
	"github.com/rationbridge/rationbridge-be/internal/models"
)

// UserServiceProvider defines the interface for profile management.
type UserServiceProvider interface {
	GetProfile(ctx context.Context, principal models.Principal, mockMode bool) (models.Principal, *models.Profile, error)
	UpdateProfile(ctx context.Context, principal models.Principal, mockMode bool, profile models.Profile) (models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
}

// UserService provides business logic for user profiles, backed by the
// local store for mock-mode principals and the provider otherwise.
type UserService struct {
	db    *sql.DB
	creds CredentialServiceProvider
	data  identity.DataAPI
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, creds CredentialServiceProvider, data identity.DataAPI) *UserService {
	return &UserService{db: db, creds: creds, data: data}
}

// GetProfile returns the principal, enriched from the credential store
// for mock principals, plus the stored profile if one exists. A missing
// profile is not an error.
func (s *UserService) GetProfile(ctx context.Context, principal models.Principal, mockMode bool) (models.Principal, *models.Profile, error) {
	if mockMode {
		if cred, err := s.creds.GetByID(principal.ID); err == nil {
			principal.Email = cred.Email
			principal.FullName = cred.FullName
			principal.UserType = cred.UserType
			principal.Phone = cred.Phone
			principal.Address = cred.Address
		}
		profile, err := s.localProfile(ctx, principal.ID)
		if err != nil && err != ErrNotFound {
			return principal, nil, err
		}
		return principal, profile, nil
	}

	body, err := s.data.SelectOne(ctx, "profiles", principal.ID, "")
	if err != nil {
		// Accounts without a profile row are normal.
		log.Debug().Err(err).Str("user_id", principal.ID).Msg("No provider profile for user")
		return principal, nil, nil
	}
	profile := profileFromJSON(gjson.ParseBytes(body))
	return principal, &profile, nil
}

// UpdateProfile upserts the principal's profile.
func (s *UserService) UpdateProfile(ctx context.Context, principal models.Principal, mockMode bool, profile models.Profile) (models.Profile, error) {
	profile.ID = principal.ID
	profile.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if mockMode {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO profiles (id, full_name, phone, address, user_type, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				full_name = excluded.full_name,
				phone = excluded.phone,
				address = excluded.address,
				user_type = excluded.user_type,
				updated_at = excluded.updated_at`,
			profile.ID, profile.FullName, profile.Phone, profile.Address, profile.UserType, profile.UpdatedAt,
		)
		if err != nil {
			return models.Profile{}, err
		}
		return profile, nil
	}

	body, err := s.data.Upsert(ctx, "profiles", profile)
	if err != nil {
		return models.Profile{}, err
	}
	return profileFromJSON(gjson.GetBytes(body, "0")), nil
}

// ListProfiles returns all known profiles, newest first. Local rows are
// always included; provider rows are appended when the provider answers.
func (s *UserService) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(full_name, ''), COALESCE(phone, ''), COALESCE(address, ''),
		       COALESCE(user_type, ''), COALESCE(updated_at, '')
		FROM profiles ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Phone, &p.Address, &p.UserType, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if body, err := s.data.Select(ctx, "profiles", nil, "created_at.desc"); err == nil {
		gjson.ParseBytes(body).ForEach(func(_, value gjson.Result) bool {
			profiles = append(profiles, profileFromJSON(value))
			return true
		})
	} else {
		log.Debug().Err(err).Msg("Skipping provider profiles in listing")
	}
	return profiles, nil
}

func (s *UserService) localProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	row := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(full_name, ''), COALESCE(phone, ''), COALESCE(address, ''),
		       COALESCE(user_type, ''), COALESCE(updated_at, '')
		FROM profiles WHERE id = ?`, id)
	err := row.Scan(&p.ID, &p.FullName, &p.Phone, &p.Address, &p.UserType, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func profileFromJSON(res gjson.Result) models.Profile {
	return models.Profile{
		ID:        res.Get("id").String(),
		FullName:  res.Get("full_name").String(),
		Phone:     res.Get("phone").String(),
		Address:   res.Get("address").String(),
		UserType:  res.Get("user_type").String(),
		UpdatedAt: res.Get("updated_at").String(),
	}
}
