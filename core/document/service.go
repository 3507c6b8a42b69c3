package document

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/tour"
)

var (
	// errors
	ErrNotFound     = errors.New("document not found")
	ErrJobNotFound  = errors.New("processing job not found")
	ErrNotFailed    = errors.New("only failed documents can be retried")
	ErrNotStoppable = errors.New("processing already finished")
	ErrNotProcessed = errors.New("document has no completed extraction")
	ErrNoTours      = errors.New("no tours were extracted from this document")
)

type (
	Repository interface {
		CreateUpload(ctx context.Context, up Upload, exec ...core.DBExecutor) (Upload, error)
		// QueryUploads applies AND operation on available QueryFilter fields.
		QueryUploads(ctx context.Context, operatorID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Upload, error)
		GetUpload(ctx context.Context, id string, exec ...core.DBExecutor) (Upload, error)
		UpdateUpload(ctx context.Context, up Upload, exec ...core.DBExecutor) (Upload, error)
		DeleteUploadsByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error)

		CreateJob(ctx context.Context, job Job, exec ...core.DBExecutor) (Job, error)
		// QueryJobs returns jobs with the given status, oldest first; all
		// statuses when status is empty.
		QueryJobs(ctx context.Context, status string, exec ...core.DBExecutor) ([]Job, error)
		GetJob(ctx context.Context, id string, exec ...core.DBExecutor) (Job, error)
		// GetLatestJobForDocument returns the most recently created job of a document.
		GetLatestJobForDocument(ctx context.Context, documentID string, exec ...core.DBExecutor) (Job, error)
		UpdateJob(ctx context.Context, job Job, exec ...core.DBExecutor) (Job, error)
	}

	ServiceInterface interface {
		Upload(operatorID string, nu NewUpload, size int64, content io.Reader) (Upload, error)
		Query(operatorID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Upload, error)
		GetByID(operatorID, id string) (Upload, error)
		GetStatus(operatorID, id string) (Status, error)
		Retry(operatorID, id string) (Job, error)
		Stop(operatorID, id string) (Upload, error)
		Delete(operatorID, id string) error
		CreateTour(operatorID, id string) (tour.Tour, error)
		CompleteFromWebhook(jobID string, result ExtractionResult) error
	}

	Service struct {
		repo    Repository
		files   core.FileStorage
		tourSvc tour.ServiceInterface
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, files core.FileStorage, tourSvc tour.ServiceInterface) *Service {
	return &Service{
		repo:    repo,
		files:   files,
		tourSvc: tourSvc,
	}
}

// Upload stores the file blob, records the upload and enqueues an extraction job.
func (svc *Service) Upload(operatorID string, nu NewUpload, size int64, content io.Reader) (Upload, error) {
	ctx := context.Background()
	now := time.Now().UTC()

	up := Upload{
		OperatorID:       operatorID,
		FileName:         nu.FileName,
		FileType:         nu.FileType,
		SizeBytes:        size,
		ProcessingStatus: StatusPending,
		UploadedAt:       now,
	}
	up, err := svc.repo.CreateUpload(ctx, up)
	if err != nil {
		return Upload{}, err
	}

	up.StoragePath = path.Join(operatorID, fmt.Sprintf("%s.%s", up.ID, up.FileType))
	if err = svc.files.Save(ctx, up.StoragePath, content); err != nil {
		return Upload{}, errors.Wrap(err, "storing uploaded file")
	}
	if up, err = svc.repo.UpdateUpload(ctx, up); err != nil {
		return Upload{}, err
	}

	if _, err = svc.enqueueJob(ctx, up); err != nil {
		return Upload{}, err
	}
	return up, nil
}

func (svc *Service) enqueueJob(ctx context.Context, up Upload) (Job, error) {
	job := Job{
		DocumentID: up.ID,
		OperatorID: up.OperatorID,
		JobType:    JobTypeDocumentExtraction,
		Status:     JobQueued,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateJob(ctx, job)
}

func (svc *Service) Query(operatorID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Upload, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "uploaded_at"}}
	}
	return svc.repo.QueryUploads(context.Background(), operatorID, filter, ordering)
}

func (svc *Service) GetByID(operatorID, id string) (Upload, error) {
	up, err := svc.repo.GetUpload(context.Background(), id)
	if err != nil {
		return Upload{}, err
	}
	// tenant isolation: records of other operators do not exist
	if operatorID != "" && up.OperatorID != operatorID {
		return Upload{}, ErrNotFound
	}
	return up, nil
}

// GetStatus returns the polling payload: upload status plus its latest job.
func (svc *Service) GetStatus(operatorID, id string) (Status, error) {
	up, err := svc.GetByID(operatorID, id)
	if err != nil {
		return Status{}, err
	}

	st := Status{
		ID:               up.ID,
		ProcessingStatus: up.ProcessingStatus,
		ConfidenceScore:  up.ConfidenceScore,
		ErrorMessage:     up.ProcessingErrors,
	}
	job, err := svc.repo.GetLatestJobForDocument(context.Background(), id)
	if err == nil {
		st.JobStatus = job.Status
		st.Done = job.Done()
	} else if errors.Cause(err) != ErrJobNotFound {
		return Status{}, err
	}
	return st, nil
}

// Retry re-queues a failed document by enqueueing a fresh job;
// completed jobs are never mutated.
func (svc *Service) Retry(operatorID, id string) (Job, error) {
	ctx := context.Background()
	up, err := svc.GetByID(operatorID, id)
	if err != nil {
		return Job{}, err
	}
	if up.ProcessingStatus != StatusFailed {
		return Job{}, core.NewValidationError(ErrNotFailed)
	}

	up.ProcessingStatus = StatusPending
	up.ProcessingErrors = ""
	if _, err = svc.repo.UpdateUpload(ctx, up); err != nil {
		return Job{}, err
	}
	return svc.enqueueJob(ctx, up)
}

// Stop cancels a queued or in-flight extraction.
func (svc *Service) Stop(operatorID, id string) (Upload, error) {
	ctx := context.Background()
	up, err := svc.GetByID(operatorID, id)
	if err != nil {
		return Upload{}, err
	}
	if up.ProcessingStatus != StatusPending && up.ProcessingStatus != StatusProcessing {
		return Upload{}, core.NewValidationError(ErrNotStoppable)
	}

	job, err := svc.repo.GetLatestJobForDocument(ctx, id)
	if err == nil && !job.Done() {
		job.Status = JobCancelled
		now := time.Now().UTC()
		job.CompletedAt = &now
		if _, err = svc.repo.UpdateJob(ctx, job); err != nil {
			return Upload{}, err
		}
	} else if err != nil && errors.Cause(err) != ErrJobNotFound {
		return Upload{}, err
	}

	up.ProcessingStatus = StatusCancelled
	return svc.repo.UpdateUpload(ctx, up)
}

// Delete removes the document record and its stored blob.
func (svc *Service) Delete(operatorID, id string) error {
	ctx := context.Background()
	up, err := svc.GetByID(operatorID, id)
	if err != nil {
		return err
	}
	if up.StoragePath != "" {
		if err = svc.files.Delete(ctx, up.StoragePath); err != nil {
			return errors.Wrap(err, "deleting stored file")
		}
	}
	_, err = svc.repo.DeleteUploadsByID(ctx, operatorID, []string{id})
	return err
}

// CreateTour builds a draft Tour from the document's extracted data.
// Only the main (first) extracted tour is used.
func (svc *Service) CreateTour(operatorID, id string) (tour.Tour, error) {
	up, err := svc.GetByID(operatorID, id)
	if err != nil {
		return tour.Tour{}, err
	}
	if up.ProcessingStatus != StatusCompleted || len(up.ExtractedData) == 0 {
		return tour.Tour{}, core.NewValidationError(ErrNotProcessed)
	}

	var result ExtractionResult
	if err = json.Unmarshal(up.ExtractedData, &result); err != nil {
		return tour.Tour{}, errors.Wrap(err, "decoding extracted data")
	}
	return svc.createTourFromResult(up, result)
}

func (svc *Service) createTourFromResult(up Upload, result ExtractionResult) (tour.Tour, error) {
	if len(result.ExtractedTours) == 0 {
		return tour.Tour{}, core.NewValidationError(ErrNoTours)
	}

	// main tour only; extensions are uploaded as separate documents
	et := result.ExtractedTours[0]
	nt := tour.NewTour{
		Title:            et.Title,
		Destination:      et.Destination,
		DurationDays:     et.DurationDays,
		PricingType:      et.PricingType,
		PricePerPerson:   et.PricePerPerson,
		PricePerGroup:    et.PricePerGroup,
		MaxGroupSize:     et.MaxGroupSize,
		Description:      et.Description,
		Highlights:       et.Highlights,
		IncludedServices: et.IncludedServices,
		ExcludedServices: et.ExcludedServices,
		DifficultyLevel:  et.DifficultyLevel,
		SeasonalDemand:   et.SeasonalDemand,
		CostPerPerson:    et.CostPerPerson,
		OperationalCosts: et.OperationalCosts,
		Status:           tour.StatusDraft, // draft for review
	}
	t, err := svc.tourSvc.Create(up.OperatorID, nt)
	if err != nil {
		return tour.Tour{}, errors.Wrap(err, "creating tour from extraction")
	}
	if t, err = svc.tourSvc.StampExtraction(up.OperatorID, t.ID, up.ID, result.ExtractionConfidence*100); err != nil {
		return tour.Tour{}, errors.Wrap(err, "stamping extraction metadata")
	}

	if extra := len(result.ExtractedTours) - 1; extra > 0 {
		up.ProcessingNotes = fmt.Sprintf(
			"Additional tours found: %d. Only main tour created. Upload separate documents for extensions.", extra)
		if _, err = svc.repo.UpdateUpload(context.Background(), up); err != nil {
			return tour.Tour{}, err
		}
	}
	return t, nil
}

// CompleteFromWebhook applies an externally posted extraction result to a job.
func (svc *Service) CompleteFromWebhook(jobID string, result ExtractionResult) error {
	ctx := context.Background()
	job, err := svc.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Done() {
		return core.NewValidationError(errors.New("job already finished"))
	}
	up, err := svc.repo.GetUpload(ctx, job.DocumentID)
	if err != nil {
		return err
	}
	return svc.applyResult(ctx, job, up, result)
}

// applyResult records a finished extraction on both the job and its document,
// then creates the draft tour. The document mirrors the job's terminal status.
func (svc *Service) applyResult(ctx context.Context, job Job, up Upload, result ExtractionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "encoding extraction result")
	}
	now := time.Now().UTC()

	job.Status = JobCompleted
	job.ResultData = raw
	job.CompletedAt = &now
	if _, err = svc.repo.UpdateJob(ctx, job); err != nil {
		return err
	}

	up.ProcessingStatus = StatusCompleted
	up.ExtractedData = raw
	up.ConfidenceScore = result.ExtractionConfidence * 100
	up.ProcessedAt = &now
	if len(result.ExtractedTours) == 0 {
		up.ProcessingNotes = "No tours found in extracted data"
	}
	if up, err = svc.repo.UpdateUpload(ctx, up); err != nil {
		return err
	}

	if len(result.ExtractedTours) > 0 {
		if _, err = svc.createTourFromResult(up, result); err != nil {
			return err
		}
	}
	return nil
}

// failJob marks a job failed and mirrors the failure onto the document.
func (svc *Service) failJob(ctx context.Context, job Job, up Upload, cause error) error {
	now := time.Now().UTC()

	job.Status = JobFailed
	job.ErrorMessage = cause.Error()
	job.CompletedAt = &now
	if _, err := svc.repo.UpdateJob(ctx, job); err != nil {
		return err
	}

	up.ProcessingStatus = StatusFailed
	up.ProcessingErrors = cause.Error()
	_, err := svc.repo.UpdateUpload(ctx, up)
	return err
}
