package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/rationbridge/rationbridge-be/internal/auth"
	"github.com/rationbridge/rationbridge-be/internal/database"
	"github.com/rationbridge/rationbridge-be/internal/identity"
	"github.com/rationbridge/rationbridge-be/internal/services"
	"github.com/rationbridge/rationbridge-be/internal/websocket"
)

// newTestRouter wires the full stack over an in-memory local store with
// the provider disabled, which is the out-of-the-box configuration.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db))

	provider := identity.Disabled{}
	resolver := auth.NewResolver(provider)
	credSvc := services.NewCredentialService(db)
	authn := identity.NewAuthenticator(provider, credSvc)

	hub := websocket.NewHub()
	go hub.Run()

	eventSvc := services.NewEventService(db, hub)
	foodSvc := services.NewFoodService(db, provider)
	userSvc := services.NewUserService(db, credSvc, provider)

	return NewRouter(hub, resolver, authn, foodSvc, userSvc, eventSvc, []string{"http://localhost:3000"})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterMockFallback(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":     "a@b.com",
		"password":  "pw",
		"full_name": "A B",
		"user_type": "donor",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := gjson.Parse(rec.Body.String())
	assert.True(t, res.Get("success").Bool())
	assert.Contains(t, res.Get("message").String(), "(mock mode)")
	assert.Equal(t, "a@b.com", res.Get("user.email").String())
	assert.True(t, strings.HasPrefix(res.Get("token").String(), auth.MockTokenPrefix))
	assert.True(t, strings.HasPrefix(res.Get("user.id").String(), "mock-"))
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "a@b.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required fields")
}

func TestLoginSeededUser(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "test@test.com",
		"password": "test123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := gjson.Parse(rec.Body.String())
	assert.Equal(t, "mock-token-mock-2", res.Get("token").String())
	assert.Equal(t, "Test User", res.Get("user.full_name").String())
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "test@test.com",
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())
}

func TestRegisterThenLogin(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":     "round@trip.com",
		"password":  "pw",
		"full_name": "Round Trip",
		"user_type": "volunteer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "round@trip.com",
		"password": "pw",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	res := gjson.Parse(rec.Body.String())
	assert.Equal(t, "Round Trip", res.Get("user.full_name").String())
	assert.Equal(t, "volunteer", res.Get("user.user_type").String())
}

func TestMeWithMockToken(t *testing.T) {
	router := newTestRouter(t)

	// Any mock-prefixed token resolves, registered or not.
	rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", "mock-token-whoever", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "whoever", gjson.Parse(rec.Body.String()).Get("user.id").String())
}

func TestMeWithoutToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"No authorization header"}`, rec.Body.String())
}

func TestLogoutWithoutProvider(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", "mock-token-mock-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"supabase not configured"}`, rec.Body.String())
}

func TestFoodListIsPublic(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/food", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := gjson.Parse(rec.Body.String())
	assert.True(t, res.Get("success").Bool())
	items := res.Get("food_items").Array()
	require.Len(t, items, 2)
	assert.Equal(t, "sample-1", items[0].Get("id").String())
}

func TestFoodCreateRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/food", "", map[string]any{
		"title": "Bread", "description": "d", "quantity": 1, "pickup_location": "here",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFoodCreateAndFetch(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/food", "mock-token-mock-1", map[string]any{
		"title":           "Bread Loaves",
		"description":     "Day-old sourdough",
		"quantity":        4,
		"pickup_location": "Bakery on 5th",
		"category":        "bakery",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := gjson.Parse(rec.Body.String())
	assert.Contains(t, res.Get("message").String(), "(mock mode)")
	itemID := res.Get("food_item.id").String()
	require.NotEmpty(t, itemID)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/food/"+itemID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bread Loaves", gjson.Parse(rec.Body.String()).Get("food_item.title").String())
}

func TestFoodCreateValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/food", "mock-token-mock-1", map[string]any{
		"title": "Bread",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required fields")
}

func TestFoodGetUnknown(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/food/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Food item not found"}`, rec.Body.String())
}

func TestFoodUpdateOwnershipGuard(t *testing.T) {
	router := newTestRouter(t)
	itemID := createListing(t, router, "mock-token-mock-1")

	rec := doJSON(t, router, http.MethodPut, "/api/v1/food/"+itemID, "mock-token-mock-2", map[string]string{
		"title": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"You can only update your own food items"}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodPut, "/api/v1/food/"+itemID, "mock-token-mock-1", map[string]string{
		"title": "Renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", gjson.Parse(rec.Body.String()).Get("food_item.title").String())
}

func TestFoodDeleteOwnershipGuard(t *testing.T) {
	router := newTestRouter(t)
	itemID := createListing(t, router, "mock-token-mock-1")

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/food/"+itemID, "mock-token-mock-2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/food/"+itemID, "mock-token-mock-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/food/"+itemID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFoodRequestFlow(t *testing.T) {
	router := newTestRouter(t)
	itemID := createListing(t, router, "mock-token-mock-1")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/food/"+itemID+"/request", "mock-token-mock-2", map[string]string{
		"message": "Can pick up today",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := gjson.Parse(rec.Body.String())
	assert.Equal(t, "pending", res.Get("request.status").String())
	assert.Equal(t, "mock-2", res.Get("request.requested_by").String())

	// Owner sees the request; the requester does not.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/food/"+itemID+"/requests", "mock-token-mock-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, gjson.Parse(rec.Body.String()).Get("requests").Array(), 1)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/food/"+itemID+"/requests", "mock-token-mock-2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFoodRequestNonAvailable(t *testing.T) {
	router := newTestRouter(t)
	itemID := createListing(t, router, "mock-token-mock-1")

	rec := doJSON(t, router, http.MethodPut, "/api/v1/food/"+itemID, "mock-token-mock-1", map[string]string{
		"status": "claimed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/food/"+itemID+"/request", "mock-token-mock-2", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Food item is not available"}`, rec.Body.String())
}

func TestUserProfileRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/profile", "mock-token-mock-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := gjson.Parse(rec.Body.String())
	assert.Equal(t, "ansh@gmail.com", res.Get("user.email").String())
	assert.Equal(t, gjson.Null, res.Get("user.profile").Type, "no profile stored yet")

	rec = doJSON(t, router, http.MethodPut, "/api/v1/users/profile", "mock-token-mock-1", map[string]string{
		"full_name": "Ansh K.",
		"phone":     "555-0102",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/users/profile", "mock-token-mock-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = gjson.Parse(rec.Body.String())
	assert.Equal(t, "Ansh K.", res.Get("user.profile.full_name").String())
}

func TestUsersListRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/users", "mock-token-mock-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventsFeed(t *testing.T) {
	router := newTestRouter(t)
	createListing(t, router, "mock-token-mock-1")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	events := gjson.Parse(rec.Body.String()).Get("events").Array()
	require.NotEmpty(t, events)
	assert.Equal(t, "item.created", events[0].Get("type").String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// createListing posts a minimal valid listing and returns its id. Mock
// ids derive from the wall clock, so a short pause keeps them distinct
// across calls.
func createListing(t *testing.T, router http.Handler, token string) string {
	t.Helper()
	time.Sleep(2 * time.Millisecond)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/food", token, map[string]any{
		"title":           "Test Item",
		"description":     "d",
		"quantity":        1,
		"pickup_location": "somewhere",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return gjson.Parse(rec.Body.String()).Get("food_item.id").String()
}
