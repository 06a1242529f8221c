package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rationbridge/rationbridge-be/internal/models"
)

type fakeFoodService struct {
	stale []models.FoodItem
	err   error
}

func (f *fakeFoodService) List(ctx context.Context) ([]models.FoodItem, error) { return nil, nil }
func (f *fakeFoodService) Get(ctx context.Context, id string) (models.FoodItem, error) {
	return models.FoodItem{}, nil
}
func (f *fakeFoodService) Create(ctx context.Context, principal models.Principal, mockMode bool, item models.FoodItem) (models.FoodItem, error) {
	return models.FoodItem{}, nil
}
func (f *fakeFoodService) Update(ctx context.Context, principal models.Principal, id string, upd models.FoodItemUpdate) (models.FoodItem, error) {
	return models.FoodItem{}, nil
}
func (f *fakeFoodService) Delete(ctx context.Context, principal models.Principal, id string) error {
	return nil
}
func (f *fakeFoodService) RequestItem(ctx context.Context, principal models.Principal, id, message string) (models.FoodRequest, error) {
	return models.FoodRequest{}, nil
}
func (f *fakeFoodService) ListRequests(ctx context.Context) ([]models.FoodRequest, error) {
	return nil, nil
}
func (f *fakeFoodService) ListItemRequests(ctx context.Context, principal models.Principal, id string) ([]models.FoodRequest, error) {
	return nil, nil
}
func (f *fakeFoodService) ExpireStale() ([]models.FoodItem, error) { return f.stale, f.err }

type recordedEvent struct {
	eventType string
	level     string
	itemID    *string
}

type fakeEventService struct {
	recorded []recordedEvent
}

func (f *fakeEventService) Record(eventType, level, message string, itemID *string) {
	f.recorded = append(f.recorded, recordedEvent{eventType, level, itemID})
}

func (f *fakeEventService) Recent(limit int) ([]models.Event, error) { return nil, nil }

func TestSweepRecordsEventPerExpiredItem(t *testing.T) {
	food := &fakeFoodService{stale: []models.FoodItem{
		{ID: "item-1", Title: "Old Bread"},
		{ID: "item-2", Title: "Old Milk"},
	}}
	events := &fakeEventService{}
	s := NewSweeper(food, events, "@every 10m")

	s.Sweep()

	require.Len(t, events.recorded, 2)
	assert.Equal(t, "item.expired", events.recorded[0].eventType)
	assert.Equal(t, "warn", events.recorded[0].level)
	require.NotNil(t, events.recorded[0].itemID)
	assert.Equal(t, "item-1", *events.recorded[0].itemID)
	assert.Equal(t, "item-2", *events.recorded[1].itemID)
}

func TestSweepSwallowsServiceError(t *testing.T) {
	food := &fakeFoodService{err: errors.New("db closed")}
	events := &fakeEventService{}
	s := NewSweeper(food, events, "@every 10m")

	s.Sweep()

	assert.Empty(t, events.recorded)
}

func TestRunRejectsInvalidSchedule(t *testing.T) {
	s := NewSweeper(&fakeFoodService{}, &fakeEventService{}, "not-a-schedule")

	err := s.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sweep schedule")
}

func TestRunSweepsImmediately(t *testing.T) {
	food := &fakeFoodService{stale: []models.FoodItem{{ID: "item-1", Title: "Old Bread"}}}
	events := &fakeEventService{}
	s := NewSweeper(food, events, "@every 10m")

	require.NoError(t, s.Run())
	defer s.Stop()

	assert.Len(t, events.recorded, 1)
}
