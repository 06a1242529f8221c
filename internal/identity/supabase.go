package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/rationbridge/rationbridge-be/internal/models"
)

const defaultTimeout = 15 * time.Second

// Client talks to a Supabase project: GoTrue for auth under /auth/v1 and
// PostgREST for table access under /rest/v1.
type Client struct {
	baseURL    string
	anonKey    string
	jwtSecret  string
	httpClient *http.Client
}

// NewClient creates a provider client for the given project. jwtSecret
// may be empty; when set, access tokens are verified locally instead of
// a network round trip per request.
func NewClient(baseURL, anonKey, jwtSecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		anonKey:   anonKey,
		jwtSecret: jwtSecret,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SignUp registers a new account, passing the profile fields through as
// user metadata.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (SignUpResult, error) {
	payload, err := json.Marshal(map[string]any{
		"email":    req.Email,
		"password": req.Password,
		"data": map[string]string{
			"full_name": req.FullName,
			"user_type": req.UserType,
			"phone":     req.Phone,
			"address":   req.Address,
		},
	})
	if err != nil {
		return SignUpResult{}, err
	}

	body, status, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", payload, nil)
	if err != nil {
		return SignUpResult{}, err
	}
	if status >= 400 {
		return SignUpResult{}, apiError(status, body)
	}

	res := gjson.ParseBytes(body)
	if res.Get("access_token").Exists() {
		user := principalFromJSON(res.Get("user"))
		return SignUpResult{User: &user, Session: sessionFromJSON(res)}, nil
	}

	// User object without a session: created but pending email confirmation.
	user := principalFromJSON(res)
	return SignUpResult{User: &user}, nil
}

// SignIn performs a password grant.
func (c *Client) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return SignInResult{}, err
	}

	body, status, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", payload, nil)
	if err != nil {
		return SignInResult{}, err
	}
	if status >= 400 {
		return SignInResult{}, apiError(status, body)
	}

	res := gjson.ParseBytes(body)
	user := principalFromJSON(res.Get("user"))
	return SignInResult{User: &user, Session: sessionFromJSON(res)}, nil
}

// SignOut revokes the session behind the given access token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	body, status, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", token, nil, nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiError(status, body)
	}
	return nil
}

// UserFromToken recovers the principal behind an access token. When the
// project's JWT secret is configured the token is verified locally;
// tokens that fail local verification still go to the remote endpoint so
// key rotation does not lock everyone out.
func (c *Client) UserFromToken(ctx context.Context, token string) (models.Principal, error) {
	if c.jwtSecret != "" {
		if user, err := c.principalFromJWT(token); err == nil {
			return user, nil
		}
	}

	body, status, err := c.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, nil)
	if err != nil {
		return models.Principal{}, err
	}
	if status >= 400 {
		return models.Principal{}, apiError(status, body)
	}
	return principalFromJSON(gjson.ParseBytes(body)), nil
}

// principalFromJWT validates an HS256 access token and builds the
// principal from its claims.
func (c *Client) principalFromJWT(token string) (models.Principal, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(c.jwtSecret), nil
	})
	if err != nil {
		return models.Principal{}, err
	}
	if !parsed.Valid {
		return models.Principal{}, fmt.Errorf("invalid token")
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return models.Principal{}, err
	}
	res := gjson.ParseBytes(raw)
	return models.Principal{
		ID:       res.Get("sub").String(),
		Email:    res.Get("email").String(),
		FullName: res.Get("user_metadata.full_name").String(),
		UserType: res.Get("user_metadata.user_type").String(),
		Phone:    res.Get("user_metadata.phone").String(),
		Address:  res.Get("user_metadata.address").String(),
	}, nil
}

// Select fetches rows from a table. Filters use PostgREST operator
// syntax, e.g. {"food_item_id": "eq.abc"}.
func (c *Client) Select(ctx context.Context, table string, filters map[string]string, order string) ([]byte, error) {
	q := url.Values{}
	q.Set("select", "*")
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, filters[k])
	}
	if order != "" {
		q.Set("order", order)
	}

	body, status, err := c.do(ctx, http.MethodGet, "/rest/v1/"+table+"?"+q.Encode(), "", nil, nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body)
	}
	return body, nil
}

// SelectOne fetches a single row by id, returning only the requested
// columns.
func (c *Client) SelectOne(ctx context.Context, table, id, columns string) ([]byte, error) {
	if columns == "" {
		columns = "*"
	}
	q := url.Values{}
	q.Set("select", columns)
	q.Set("id", "eq."+id)

	body, status, err := c.do(ctx, http.MethodGet, "/rest/v1/"+table+"?"+q.Encode(), "", nil, map[string]string{
		"Accept": "application/vnd.pgrst.object+json",
	})
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body)
	}
	return body, nil
}

// Insert adds a row and returns its stored representation.
func (c *Client) Insert(ctx context.Context, table string, record any) ([]byte, error) {
	return c.write(ctx, http.MethodPost, "/rest/v1/"+table, record, "return=representation")
}

// Update patches a row by id and returns the updated representation.
func (c *Client) Update(ctx context.Context, table, id string, patch []byte) ([]byte, error) {
	path := "/rest/v1/" + table + "?id=eq." + url.QueryEscape(id)
	body, status, err := c.do(ctx, http.MethodPatch, path, "", patch, map[string]string{
		"Prefer": "return=representation",
	})
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body)
	}
	return body, nil
}

// Upsert inserts a row, merging with an existing one on conflict.
func (c *Client) Upsert(ctx context.Context, table string, record any) ([]byte, error) {
	return c.write(ctx, http.MethodPost, "/rest/v1/"+table, record, "resolution=merge-duplicates,return=representation")
}

// Delete removes a row by id.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	path := "/rest/v1/" + table + "?id=eq." + url.QueryEscape(id)
	body, status, err := c.do(ctx, http.MethodDelete, path, "", nil, nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiError(status, body)
	}
	return nil
}

func (c *Client) write(ctx context.Context, method, path string, record any, prefer string) ([]byte, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	body, status, err := c.do(ctx, method, path, "", payload, map[string]string{
		"Prefer": prefer,
	})
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body)
	}
	return body, nil
}

// do performs a request against the project. An empty token falls back
// to the anon key for the Authorization header.
func (c *Client) do(ctx context.Context, method, path, token string, payload []byte, headers map[string]string) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("apikey", c.anonKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("supabase request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// apiError extracts the human-readable message from a provider error
// body. GoTrue and PostgREST use different field names, so try each.
func apiError(status int, body []byte) error {
	res := gjson.ParseBytes(body)
	for _, field := range []string{"msg", "message", "error_description", "error"} {
		if msg := res.Get(field).String(); msg != "" {
			return fmt.Errorf("supabase: %s", msg)
		}
	}
	log.Debug().Int("status", status).Msg("Provider returned an error without a message field")
	return fmt.Errorf("supabase: request failed with status %d", status)
}

// principalFromJSON maps a GoTrue user object onto a principal.
func principalFromJSON(res gjson.Result) models.Principal {
	return models.Principal{
		ID:       res.Get("id").String(),
		Email:    res.Get("email").String(),
		FullName: res.Get("user_metadata.full_name").String(),
		UserType: res.Get("user_metadata.user_type").String(),
		Phone:    res.Get("user_metadata.phone").String(),
		Address:  res.Get("user_metadata.address").String(),
	}
}

func sessionFromJSON(res gjson.Result) *Session {
	return &Session{
		AccessToken:  res.Get("access_token").String(),
		RefreshToken: res.Get("refresh_token").String(),
		TokenType:    res.Get("token_type").String(),
		ExpiresIn:    res.Get("expires_in").Int(),
	}
}
