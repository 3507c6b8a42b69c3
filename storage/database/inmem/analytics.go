package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/analytics"
)

type analyticsRepository struct {
	db *DB
}

var _ analytics.Repository = (*analyticsRepository)(nil) // interface compliance check

func NewAnalyticsRepository(db *DB) *analyticsRepository {
	return &analyticsRepository{db: db}
}

func (repo *analyticsRepository) CreateRecord(ctx context.Context, r analytics.Record, exec ...core.DBExecutor) (analytics.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	r.ID = uuid.New().String()
	repo.db.records[r.ID] = &r
	return r, nil
}

func (repo *analyticsRepository) QueryRecords(ctx context.Context, operatorID, analyticsType string, exec ...core.DBExecutor) ([]analytics.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var records []analytics.Record
	for _, r := range repo.db.records {
		if r.OperatorID != operatorID {
			continue
		}
		if analyticsType != "" && r.AnalyticsType != analyticsType {
			continue
		}
		records = append(records, *r)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].GeneratedAt.After(records[j].GeneratedAt) })
	return records, nil
}
