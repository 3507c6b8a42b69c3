package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/document"
)

type documentRepository struct {
	db *DB
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *DB) *documentRepository {
	return &documentRepository{db: db}
}

func (repo *documentRepository) CreateUpload(ctx context.Context, up document.Upload, exec ...core.DBExecutor) (document.Upload, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	up.ID = uuid.New().String()
	repo.db.uploads[up.ID] = &up
	return up, nil
}

func (repo *documentRepository) QueryUploads(ctx context.Context, operatorID string, filter *document.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]document.Upload, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var uploads []document.Upload
	for _, up := range repo.db.uploads {
		if up.OperatorID != operatorID {
			continue
		}
		if filter != nil {
			if filter.Status != "" && up.ProcessingStatus != filter.Status {
				continue
			}
			if filter.FileType != "" && up.FileType != filter.FileType {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(up.FileName), strings.ToLower(filter.Search)) {
				continue
			}
		}
		uploads = append(uploads, *up)
	}

	if len(ordering) > 0 {
		ord := ordering[0]
		sort.SliceStable(uploads, func(i, j int) bool {
			less := uploads[i].UploadedAt.Before(uploads[j].UploadedAt) // uploaded_at
			if !ord.Ascending {
				return !less
			}
			return less
		})
	}
	return uploads, nil
}

func (repo *documentRepository) GetUpload(ctx context.Context, id string, exec ...core.DBExecutor) (document.Upload, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if up, ok := repo.db.uploads[id]; ok {
		return *up, nil
	}
	return document.Upload{}, document.ErrNotFound
}

func (repo *documentRepository) UpdateUpload(ctx context.Context, up document.Upload, exec ...core.DBExecutor) (document.Upload, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.uploads[up.ID]; !ok {
		return document.Upload{}, document.ErrNotFound
	}
	repo.db.uploads[up.ID] = &up
	return up, nil
}

func (repo *documentRepository) DeleteUploadsByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if up, ok := repo.db.uploads[id]; ok && up.OperatorID == operatorID {
			delete(repo.db.uploads, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *documentRepository) CreateJob(ctx context.Context, job document.Job, exec ...core.DBExecutor) (document.Job, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	job.ID = uuid.New().String()
	repo.db.jobs[job.ID] = &job
	return job, nil
}

func (repo *documentRepository) QueryJobs(ctx context.Context, status string, exec ...core.DBExecutor) ([]document.Job, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var jobs []document.Job
	for _, job := range repo.db.jobs {
		if status != "" && job.Status != status {
			continue
		}
		jobs = append(jobs, *job)
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs, nil
}

func (repo *documentRepository) GetJob(ctx context.Context, id string, exec ...core.DBExecutor) (document.Job, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if job, ok := repo.db.jobs[id]; ok {
		return *job, nil
	}
	return document.Job{}, document.ErrJobNotFound
}

func (repo *documentRepository) GetLatestJobForDocument(ctx context.Context, documentID string, exec ...core.DBExecutor) (document.Job, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var latest *document.Job
	for _, job := range repo.db.jobs {
		if job.DocumentID != documentID {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	if latest == nil {
		return document.Job{}, document.ErrJobNotFound
	}
	return *latest, nil
}

func (repo *documentRepository) UpdateJob(ctx context.Context, job document.Job, exec ...core.DBExecutor) (document.Job, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.jobs[job.ID]; !ok {
		return document.Job{}, document.ErrJobNotFound
	}
	repo.db.jobs[job.ID] = &job
	return job, nil
}
