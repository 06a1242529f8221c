package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/rationbridge/rationbridge-be/internal/identity"
	"github.com/rationbridge/rationbridge-be/internal/models"
)

// FoodServiceProvider defines the interface for marketplace listings
// and the requests made against them.
type FoodServiceProvider interface {
	List(ctx context.Context) ([]models.FoodItem, error)
	Get(ctx context.Context, id string) (models.FoodItem, error)
	Create(ctx context.Context, principal models.Principal, mockMode bool, item models.FoodItem) (models.FoodItem, error)
	Update(ctx context.Context, principal models.Principal, id string, upd models.FoodItemUpdate) (models.FoodItem, error)
	Delete(ctx context.Context, principal models.Principal, id string) error
	RequestItem(ctx context.Context, principal models.Principal, id, message string) (models.FoodRequest, error)
	ListRequests(ctx context.Context) ([]models.FoodRequest, error)
	ListItemRequests(ctx context.Context, principal models.Principal, id string) ([]models.FoodRequest, error)
	ExpireStale() ([]models.FoodItem, error)
}

// FoodService provides business logic for food items. Items created by
// mock-mode callers live in the local store; everything else is proxied
// to the provider's data API.
type FoodService struct {
	db   *sql.DB
	data identity.DataAPI
}

// NewFoodService creates a new FoodService.
func NewFoodService(db *sql.DB, data identity.DataAPI) *FoodService {
	return &FoodService{db: db, data: data}
}

// List returns every local item in insertion order, followed by the
// built-in sample items. Samples are synthesized at read time and never
// stored, so they cannot be mutated or shadowed.
func (s *FoodService) List(ctx context.Context) ([]models.FoodItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(description, ''), quantity, COALESCE(expiry_date, ''),
		       COALESCE(pickup_location, ''), COALESCE(category, ''), COALESCE(dietary_info, ''),
		       created_by, status, created_at, COALESCE(updated_at, '')
		FROM food_items ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.FoodItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return append(items, sampleItems()...), nil
}

// Get retrieves a single item: local store and samples first, then the
// provider.
func (s *FoodService) Get(ctx context.Context, id string) (models.FoodItem, error) {
	item, _, err := s.find(ctx, id)
	return item, err
}

// Create stores a new listing. Mock-mode callers write to the local
// store; real callers write through to the provider.
func (s *FoodService) Create(ctx context.Context, principal models.Principal, mockMode bool, item models.FoodItem) (models.FoodItem, error) {
	now := time.Now().UTC()

	if mockMode {
		item.ID = "mock-" + strconv.FormatInt(now.UnixMilli(), 10)
		item.CreatedBy = principal.ID
		item.Status = models.StatusAvailable
		item.CreatedAt = now.Format(time.RFC3339)
		item.Profiles = &models.DonorInfo{FullName: "Mock User", UserType: "donor"}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO food_items (id, title, description, quantity, expiry_date, pickup_location, category, dietary_info, created_by, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Title, item.Description, item.Quantity, item.ExpiryDate,
			item.PickupLocation, item.Category, item.DietaryInfo, item.CreatedBy, item.Status, item.CreatedAt,
		)
		if err != nil {
			return models.FoodItem{}, err
		}
		return item, nil
	}

	payload := []byte(`{}`)
	payload, _ = sjson.SetBytes(payload, "title", item.Title)
	payload, _ = sjson.SetBytes(payload, "description", item.Description)
	payload, _ = sjson.SetBytes(payload, "quantity", item.Quantity)
	payload, _ = sjson.SetBytes(payload, "pickup_location", item.PickupLocation)
	payload, _ = sjson.SetBytes(payload, "created_by", principal.ID)
	payload, _ = sjson.SetBytes(payload, "status", models.StatusAvailable)
	if item.ExpiryDate != "" {
		payload, _ = sjson.SetBytes(payload, "expiry_date", item.ExpiryDate)
	}
	if item.Category != "" {
		payload, _ = sjson.SetBytes(payload, "category", item.Category)
	}
	if item.DietaryInfo != "" {
		// The remote column is a text array.
		payload, _ = sjson.SetBytes(payload, "dietary_info", splitDietary(item.DietaryInfo))
	}

	body, err := s.data.Insert(ctx, "food_items", json.RawMessage(payload))
	if err != nil {
		return models.FoodItem{}, err
	}
	return foodItemFromJSON(gjson.GetBytes(body, "0")), nil
}

// Update applies changes to a listing owned by the principal.
func (s *FoodService) Update(ctx context.Context, principal models.Principal, id string, upd models.FoodItemUpdate) (models.FoodItem, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	if local, err := s.localItem(ctx, id); err == nil {
		if local.CreatedBy != principal.ID {
			return models.FoodItem{}, ErrForbidden
		}
		return s.updateLocal(ctx, id, upd, now)
	} else if err != ErrNotFound {
		return models.FoodItem{}, err
	}

	body, err := s.data.SelectOne(ctx, "food_items", id, "created_by")
	if err != nil {
		return models.FoodItem{}, ErrNotFound
	}
	if gjson.GetBytes(body, "created_by").String() != principal.ID {
		return models.FoodItem{}, ErrForbidden
	}

	patch := []byte(`{}`)
	if upd.Title != nil {
		patch, _ = sjson.SetBytes(patch, "title", *upd.Title)
	}
	if upd.Description != nil {
		patch, _ = sjson.SetBytes(patch, "description", *upd.Description)
	}
	if upd.Quantity != nil {
		patch, _ = sjson.SetBytes(patch, "quantity", *upd.Quantity)
	}
	if upd.ExpiryDate != nil {
		patch, _ = sjson.SetBytes(patch, "expiry_date", *upd.ExpiryDate)
	}
	if upd.PickupLocation != nil {
		patch, _ = sjson.SetBytes(patch, "pickup_location", *upd.PickupLocation)
	}
	if upd.Category != nil {
		patch, _ = sjson.SetBytes(patch, "category", *upd.Category)
	}
	if upd.DietaryInfo != nil {
		patch, _ = sjson.SetBytes(patch, "dietary_info", splitDietary(*upd.DietaryInfo))
	}
	if upd.Status != nil {
		patch, _ = sjson.SetBytes(patch, "status", *upd.Status)
	}
	patch, _ = sjson.SetBytes(patch, "updated_at", now)

	body, err = s.data.Update(ctx, "food_items", id, patch)
	if err != nil {
		return models.FoodItem{}, err
	}
	return foodItemFromJSON(gjson.GetBytes(body, "0")), nil
}

// Delete removes a listing owned by the principal.
func (s *FoodService) Delete(ctx context.Context, principal models.Principal, id string) error {
	if local, err := s.localItem(ctx, id); err == nil {
		if local.CreatedBy != principal.ID {
			return ErrForbidden
		}
		_, err = s.db.ExecContext(ctx, "DELETE FROM food_items WHERE id = ?", id)
		return err
	} else if err != ErrNotFound {
		return err
	}

	body, err := s.data.SelectOne(ctx, "food_items", id, "created_by")
	if err != nil {
		return ErrNotFound
	}
	if gjson.GetBytes(body, "created_by").String() != principal.ID {
		return ErrForbidden
	}
	return s.data.Delete(ctx, "food_items", id)
}

// RequestItem creates a pending request against an available item. The
// request lands wherever the item lives.
func (s *FoodService) RequestItem(ctx context.Context, principal models.Principal, id, message string) (models.FoodRequest, error) {
	item, local, err := s.find(ctx, id)
	if err != nil {
		return models.FoodRequest{}, err
	}
	if item.Status != models.StatusAvailable {
		return models.FoodRequest{}, ErrNotAvailable
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if local {
		req := models.FoodRequest{
			ID:          uuid.New().String(),
			FoodItemID:  id,
			RequestedBy: principal.ID,
			Message:     message,
			Status:      "pending",
			CreatedAt:   now,
		}
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO food_requests (id, food_item_id, requested_by, message, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			req.ID, req.FoodItemID, req.RequestedBy, req.Message, req.Status, req.CreatedAt,
		)
		if err != nil {
			return models.FoodRequest{}, err
		}
		return req, nil
	}

	body, err := s.data.Insert(ctx, "food_requests", map[string]string{
		"food_item_id": id,
		"requested_by": principal.ID,
		"message":      message,
		"status":       "pending",
	})
	if err != nil {
		return models.FoodRequest{}, err
	}
	return requestFromJSON(gjson.GetBytes(body, "0")), nil
}

// ListRequests returns all requests, newest first. Local requests are
// always included; provider rows are appended when the provider answers.
func (s *FoodService) ListRequests(ctx context.Context) ([]models.FoodRequest, error) {
	requests, err := s.localRequests(ctx, "")
	if err != nil {
		return nil, err
	}

	if body, err := s.data.Select(ctx, "food_requests", nil, "created_at.desc"); err == nil {
		gjson.ParseBytes(body).ForEach(func(_, value gjson.Result) bool {
			requests = append(requests, requestFromJSON(value))
			return true
		})
	} else {
		log.Debug().Err(err).Msg("Skipping provider requests in listing")
	}
	return requests, nil
}

// ListItemRequests returns the requests against one item, restricted to
// the item's owner.
func (s *FoodService) ListItemRequests(ctx context.Context, principal models.Principal, id string) ([]models.FoodRequest, error) {
	item, local, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.CreatedBy != principal.ID {
		return nil, ErrForbidden
	}

	if local {
		return s.localRequests(ctx, id)
	}

	body, err := s.data.Select(ctx, "food_requests", map[string]string{"food_item_id": "eq." + id}, "created_at.desc")
	if err != nil {
		return nil, err
	}
	var requests []models.FoodRequest
	gjson.ParseBytes(body).ForEach(func(_, value gjson.Result) bool {
		requests = append(requests, requestFromJSON(value))
		return true
	})
	return requests, nil
}

// ExpireStale marks local items past their expiry date as expired and
// returns them.
func (s *FoodService) ExpireStale() ([]models.FoodItem, error) {
	rows, err := s.db.Query(`
		SELECT id, title FROM food_items
		WHERE status = ? AND COALESCE(expiry_date, '') != '' AND date(expiry_date) < date('now')`,
		models.StatusAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []models.FoodItem
	for rows.Next() {
		var item models.FoodItem
		if err := rows.Scan(&item.ID, &item.Title); err != nil {
			return nil, err
		}
		stale = append(stale, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range stale {
		_, err := s.db.Exec("UPDATE food_items SET status = ?, updated_at = ? WHERE id = ?",
			models.StatusExpired, now, stale[i].ID)
		if err != nil {
			return nil, err
		}
		stale[i].Status = models.StatusExpired
	}
	return stale, nil
}

// find locates an item in the local store, the sample set, or the
// provider, in that order.
func (s *FoodService) find(ctx context.Context, id string) (models.FoodItem, bool, error) {
	item, err := s.localItem(ctx, id)
	if err == nil {
		return item, true, nil
	}
	if err != ErrNotFound {
		return models.FoodItem{}, false, err
	}

	for _, sample := range sampleItems() {
		if sample.ID == id {
			return sample, true, nil
		}
	}

	body, err := s.data.SelectOne(ctx, "food_items", id, "")
	if err != nil {
		return models.FoodItem{}, false, ErrNotFound
	}
	return foodItemFromJSON(gjson.ParseBytes(body)), false, nil
}

func (s *FoodService) localItem(ctx context.Context, id string) (models.FoodItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, COALESCE(description, ''), quantity, COALESCE(expiry_date, ''),
		       COALESCE(pickup_location, ''), COALESCE(category, ''), COALESCE(dietary_info, ''),
		       created_by, status, created_at, COALESCE(updated_at, '')
		FROM food_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.FoodItem{}, ErrNotFound
		}
		return models.FoodItem{}, err
	}
	return item, nil
}

func (s *FoodService) updateLocal(ctx context.Context, id string, upd models.FoodItemUpdate, now string) (models.FoodItem, error) {
	set := []string{"updated_at = ?"}
	args := []any{now}

	appendSet := func(column string, value any) {
		set = append(set, column+" = ?")
		args = append(args, value)
	}
	if upd.Title != nil {
		appendSet("title", *upd.Title)
	}
	if upd.Description != nil {
		appendSet("description", *upd.Description)
	}
	if upd.Quantity != nil {
		appendSet("quantity", *upd.Quantity)
	}
	if upd.ExpiryDate != nil {
		appendSet("expiry_date", *upd.ExpiryDate)
	}
	if upd.PickupLocation != nil {
		appendSet("pickup_location", *upd.PickupLocation)
	}
	if upd.Category != nil {
		appendSet("category", *upd.Category)
	}
	if upd.DietaryInfo != nil {
		appendSet("dietary_info", *upd.DietaryInfo)
	}
	if upd.Status != nil {
		appendSet("status", *upd.Status)
	}

	args = append(args, id)
	_, err := s.db.ExecContext(ctx, "UPDATE food_items SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return models.FoodItem{}, err
	}
	return s.localItem(ctx, id)
}

// localRequests lists local requests, all of them or those for a single
// item, attaching a summary of the item when it can be resolved.
func (s *FoodService) localRequests(ctx context.Context, itemID string) ([]models.FoodRequest, error) {
	query := `
		SELECT id, food_item_id, requested_by, COALESCE(message, ''), status, created_at
		FROM food_requests`
	args := []any{}
	if itemID != "" {
		query += " WHERE food_item_id = ?"
		args = append(args, itemID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.FoodRequest
	for rows.Next() {
		var req models.FoodRequest
		if err := rows.Scan(&req.ID, &req.FoodItemID, &req.RequestedBy, &req.Message, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Release the cursor before the enrichment lookups. The pool holds a
	// single connection, so a query nested inside the scan loop would
	// starve waiting for it.
	rows.Close()

	if itemID == "" {
		for i := range requests {
			if item, _, err := s.find(ctx, requests[i].FoodItemID); err == nil {
				summary := item
				summary.Profiles = nil
				requests[i].Item = &summary
			}
		}
	}
	return requests, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (models.FoodItem, error) {
	var item models.FoodItem
	err := row.Scan(&item.ID, &item.Title, &item.Description, &item.Quantity, &item.ExpiryDate,
		&item.PickupLocation, &item.Category, &item.DietaryInfo, &item.CreatedBy, &item.Status,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return models.FoodItem{}, err
	}
	if strings.HasPrefix(item.ID, "mock-") {
		item.Profiles = &models.DonorInfo{FullName: "Mock User", UserType: "donor"}
	}
	return item, nil
}

// sampleItems returns the demo listings appended to every marketplace
// read. Expiry dates are kept ahead of today so they stay requestable.
func sampleItems() []models.FoodItem {
	now := time.Now().UTC()
	return []models.FoodItem{
		{
			ID:             "sample-1",
			Title:          "Fresh Pizza Slices",
			Description:    "Leftover pizza from office lunch, still warm!",
			Quantity:       8,
			ExpiryDate:     now.AddDate(0, 0, 1).Format("2006-01-02"),
			PickupLocation: "Tech Office, 123 Innovation Drive",
			Category:       "prepared",
			DietaryInfo:    "Contains gluten, cheese",
			CreatedBy:      "sample-user",
			Status:         models.StatusAvailable,
			CreatedAt:      now.Format(time.RFC3339),
			Profiles:       &models.DonorInfo{FullName: "Demo Restaurant", UserType: "donor"},
		},
		{
			ID:             "sample-2",
			Title:          "Fresh Vegetables",
			Description:    "Organic vegetables from today's market",
			Quantity:       25,
			ExpiryDate:     now.AddDate(0, 0, 2).Format("2006-01-02"),
			PickupLocation: "Green Market, 456 Healthy Street",
			Category:       "fresh",
			DietaryInfo:    "Organic, pesticide-free",
			CreatedBy:      "sample-user",
			Status:         models.StatusAvailable,
			CreatedAt:      now.Format(time.RFC3339),
			Profiles:       &models.DonorInfo{FullName: "Organic Farm Co-op", UserType: "donor"},
		},
	}
}

func splitDietary(info string) []string {
	parts := strings.Split(info, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// foodItemFromJSON maps a provider row onto a FoodItem. dietary_info
// may be a string or a text array depending on the column type.
func foodItemFromJSON(res gjson.Result) models.FoodItem {
	dietary := res.Get("dietary_info")
	dietaryStr := dietary.String()
	if dietary.IsArray() {
		var parts []string
		dietary.ForEach(func(_, value gjson.Result) bool {
			parts = append(parts, value.String())
			return true
		})
		dietaryStr = strings.Join(parts, ", ")
	}

	item := models.FoodItem{
		ID:             res.Get("id").String(),
		Title:          res.Get("title").String(),
		Description:    res.Get("description").String(),
		Quantity:       int(res.Get("quantity").Int()),
		ExpiryDate:     res.Get("expiry_date").String(),
		PickupLocation: res.Get("pickup_location").String(),
		Category:       res.Get("category").String(),
		DietaryInfo:    dietaryStr,
		CreatedBy:      res.Get("created_by").String(),
		Status:         res.Get("status").String(),
		CreatedAt:      res.Get("created_at").String(),
		UpdatedAt:      res.Get("updated_at").String(),
	}
	if profiles := res.Get("profiles"); profiles.Exists() {
		item.Profiles = &models.DonorInfo{
			FullName: profiles.Get("full_name").String(),
			UserType: profiles.Get("user_type").String(),
			Phone:    profiles.Get("phone").String(),
		}
	}
	return item
}

func requestFromJSON(res gjson.Result) models.FoodRequest {
	req := models.FoodRequest{
		ID:          res.Get("id").String(),
		FoodItemID:  res.Get("food_item_id").String(),
		RequestedBy: res.Get("requested_by").String(),
		Message:     res.Get("message").String(),
		Status:      res.Get("status").String(),
		CreatedAt:   res.Get("created_at").String(),
	}
	if item := res.Get("food_items"); item.Exists() {
		parsed := foodItemFromJSON(item)
		req.Item = &parsed
	}
	if profiles := res.Get("profiles"); profiles.Exists() {
		req.Requester = &models.DonorInfo{
			FullName: profiles.Get("full_name").String(),
			UserType: profiles.Get("user_type").String(),
			Phone:    profiles.Get("phone").String(),
		}
	}
	return req
}
