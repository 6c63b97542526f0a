package api

import (
	"context"

	"prodledger/internal/journal"
	"prodledger/internal/production"
	"prodledger/internal/reconcile"
	"prodledger/internal/store"
)

// GetAllData returns every production record, newest date first.
func (s *Service) GetAllData() ([]production.Record, error) {
	return s.production.GetAll()
}

// GetDataByDate returns the production records for one date.
func (s *Service) GetDataByDate(date string) ([]production.Record, error) {
	return s.production.GetByDate(date)
}

// GetGroupedByDate returns per-date record counts and total quantities.
func (s *Service) GetGroupedByDate() ([]store.DateSummary, error) {
	return s.production.GetGroupedByDate()
}

// UpsertData inserts or replaces one record by its natural key.
func (s *Service) UpsertData(rec production.Record) (store.UpsertResult, error) {
	return s.production.Upsert(rec)
}

// UpsertBatchData upserts recs, collecting per-record failures.
func (s *Service) UpsertBatchData(recs []production.Record) (store.BatchResult, error) {
	return s.production.UpsertBatch(recs)
}

// CompareAndUpdate reconciles recs with the stored records using the
// configured compare mode. The run is journaled.
func (s *Service) CompareAndUpdate(ctx context.Context, recs []production.Record) (reconcile.Result[production.Record], error) {
	ctx, run := s.beginRun(ctx, journal.KindProductionReconcile, "api")
	res, err := s.production.CompareAndUpdate(recs, s.compare)
	run.finish(ctx, reconcileSummary(res), err)
	return res, err
}

// DeleteByID removes one record by id.
func (s *Service) DeleteByID(id int) (store.DeleteResult, error) {
	return s.production.DeleteByID(id)
}

// DeleteByIDs removes every record whose id is listed.
func (s *Service) DeleteByIDs(ids []int) (store.DeleteResult, error) {
	return s.production.DeleteByIDs(ids)
}

// DeleteByDate removes every record for date.
func (s *Service) DeleteByDate(date string) (store.DeleteResult, error) {
	return s.production.DeleteByDate(date)
}

// DeleteByDates removes every record whose date is listed.
func (s *Service) DeleteByDates(dates []string) (store.DeleteResult, error) {
	return s.production.DeleteByDates(dates)
}

// DeleteByCondition removes records matching cond.
func (s *Service) DeleteByCondition(cond production.Condition) (store.DeleteResult, error) {
	return s.production.DeleteByCondition(cond)
}

// DeleteAll removes every production record.
func (s *Service) DeleteAll() (store.DeleteResult, error) {
	return s.production.DeleteAll()
}
