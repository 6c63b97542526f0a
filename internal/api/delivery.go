package api

import (
	"context"

	"prodledger/internal/delivery"
	"prodledger/internal/journal"
	"prodledger/internal/reconcile"
	"prodledger/internal/store"
)

// GetDeliveryData returns every delivery day, newest first.
func (s *Service) GetDeliveryData() ([]delivery.Day, error) {
	return s.delivery.GetAll()
}

// GetRecentDays returns the n newest days. n <= 0 uses delivery.recent_days.
func (s *Service) GetRecentDays(n int) ([]delivery.Day, error) {
	if n <= 0 {
		n = s.cfg.Delivery.RecentDays
	}
	return s.delivery.GetRecentDays(n)
}

// GetDeliveryByDate returns one day and whether it exists.
func (s *Service) GetDeliveryByDate(date string) (delivery.Day, bool, error) {
	return s.delivery.GetByDate(date)
}

// GetDeliveryGroupedByDate returns per-date totals.
func (s *Service) GetDeliveryGroupedByDate() ([]store.DateSummary, error) {
	return s.delivery.GetGroupedByDate()
}

// UpsertDelivery merges patch into the day at date.
func (s *Service) UpsertDelivery(date string, patch delivery.Patch) (delivery.Day, error) {
	return s.delivery.Upsert(date, patch)
}

// UpsertHourlyCumulative sets the listed hours of date and re-derives the total.
func (s *Service) UpsertHourlyCumulative(date string, values []delivery.HourQuantity) (delivery.Day, error) {
	return s.delivery.UpsertHourlyCumulative(date, values)
}

// CompareAndUpdateDelivery reconciles days with the stored days.
func (s *Service) CompareAndUpdateDelivery(days []delivery.Day) (reconcile.Result[delivery.Day], error) {
	return s.delivery.CompareAndUpdate(days)
}

// ReplaceAll stores exactly days. The run is journaled.
func (s *Service) ReplaceAll(ctx context.Context, days []delivery.Day) (ReplaceResult, error) {
	ctx, run := s.beginRun(ctx, journal.KindDeliveryReplace, "api")
	n, err := s.delivery.ReplaceAll(days)
	run.finish(ctx, journal.Summary{Imported: n}, err)
	if err != nil {
		return ReplaceResult{}, err
	}
	return ReplaceResult{Count: n}, nil
}

// DeleteDeliveryByDate removes one day.
func (s *Service) DeleteDeliveryByDate(date string) (store.DeleteResult, error) {
	return s.delivery.DeleteByDate(date)
}

// DeleteDeliveryByDates removes every listed day.
func (s *Service) DeleteDeliveryByDates(dates []string) (store.DeleteResult, error) {
	return s.delivery.DeleteByDates(dates)
}

// DeleteAllDelivery removes every day.
func (s *Service) DeleteAllDelivery() (store.DeleteResult, error) {
	return s.delivery.DeleteAll()
}
