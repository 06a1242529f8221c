package monitoring

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/rationbridge/rationbridge-be/internal/services"
)

// Sweeper periodically marks local listings past their expiry date as
// expired so stale food stops showing as available.
type Sweeper struct {
	foodSvc  services.FoodServiceProvider
	eventSvc services.EventServiceProvider
	schedule string
	cron     *cron.Cron
}

// NewSweeper creates a sweeper on the given cron schedule.
func NewSweeper(foodSvc services.FoodServiceProvider, eventSvc services.EventServiceProvider, schedule string) *Sweeper {
	return &Sweeper{
		foodSvc:  foodSvc,
		eventSvc: eventSvc,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Run sweeps once immediately, then on the configured schedule.
func (s *Sweeper) Run() error {
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.Sweep()
	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("Expiry sweeper started")
	return nil
}

// Stop halts the sweeper. Already-running sweeps finish.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep expires stale listings and records an event for each.
func (s *Sweeper) Sweep() {
	stale, err := s.foodSvc.ExpireStale()
	if err != nil {
		log.Error().Err(err).Msg("Expiry sweep failed")
		return
	}
	for _, item := range stale {
		id := item.ID
		msg := fmt.Sprintf("Food item '%s' passed its expiry date and was marked expired", item.Title)
		s.eventSvc.Record("item.expired", "warn", msg, &id)
	}
	if len(stale) > 0 {
		log.Info().Int("count", len(stale)).Msg("Expired stale food items")
	}
}
