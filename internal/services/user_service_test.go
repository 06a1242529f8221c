package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rationbridge/rationbridge-be/internal/identity"
	"github.com/rationbridge/rationbridge-be/internal/models"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	db := newTestDB(t)
	return NewUserService(db, NewCredentialService(db), identity.Disabled{})
}

func TestGetProfileEnrichesMockPrincipal(t *testing.T) {
	svc := newUserService(t)

	// The resolver only recovers the id from a mock token; the rest
	// comes from the credential store.
	user, profile, err := svc.GetProfile(context.Background(), models.Principal{ID: "mock-1"}, true)
	require.NoError(t, err)
	assert.Equal(t, "ansh@gmail.com", user.Email)
	assert.Equal(t, "Ansh Kumar", user.FullName)
	assert.Equal(t, "volunteer", user.UserType)
	assert.Nil(t, profile, "no profile stored yet")
}

func TestGetProfileUnknownMockIDKeepsPrincipal(t *testing.T) {
	svc := newUserService(t)

	// Forged ids resolve fine; there is just nothing to enrich with.
	user, profile, err := svc.GetProfile(context.Background(), models.Principal{ID: "forged-id"}, true)
	require.NoError(t, err)
	assert.Equal(t, "forged-id", user.ID)
	assert.Empty(t, user.Email)
	assert.Nil(t, profile)
}

func TestUpdateProfileRoundTrip(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	principal := models.Principal{ID: "mock-2"}

	saved, err := svc.UpdateProfile(ctx, principal, true, models.Profile{
		FullName: "Test User Updated",
		Phone:    "555-0101",
		Address:  "12 Main St",
		UserType: "donor",
	})
	require.NoError(t, err)
	assert.Equal(t, "mock-2", saved.ID)
	assert.NotEmpty(t, saved.UpdatedAt)

	_, profile, err := svc.GetProfile(ctx, principal, true)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Test User Updated", profile.FullName)
	assert.Equal(t, "555-0101", profile.Phone)

	// Upsert: a second save overwrites in place.
	saved, err = svc.UpdateProfile(ctx, principal, true, models.Profile{FullName: "Renamed", UserType: "donor"})
	require.NoError(t, err)

	profiles, err := svc.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Renamed", profiles[0].FullName)
}

func TestListProfilesEmpty(t *testing.T) {
	svc := newUserService(t)

	profiles, err := svc.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profiles)
}
