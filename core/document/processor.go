package document

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
)

// minContentLength guards against extracting from empty or truncated files.
const minContentLength = 100

// Extractor pulls structured tour data out of raw document content.
type Extractor interface {
	Extract(ctx context.Context, content, fileType string) (ExtractionResult, error)
	Name() string
}

// Processor drains queued extraction jobs. It is invoked on demand (admin
// command or process-now endpoint), not by a persistent scheduler.
type Processor struct {
	svc       *Service
	extractor Extractor
	logger    core.Logger
}

func NewProcessor(svc *Service, extractor Extractor, logger core.Logger) *Processor {
	return &Processor{
		svc:       svc,
		extractor: extractor,
		logger:    logger,
	}
}

// ProcessPending runs all queued jobs, oldest first. A failing job is recorded
// and skipped; it never aborts the batch.
func (p *Processor) ProcessPending(ctx context.Context) (processed, failed int, err error) {
	jobs, err := p.svc.repo.QueryJobs(ctx, JobQueued)
	if err != nil {
		return 0, 0, err
	}
	for _, job := range jobs {
		if err = p.ProcessJob(ctx, job); err != nil {
			p.logger.Error("processing job failed", "job", job.ID, "document", job.DocumentID, "error", err)
			failed++
			continue
		}
		processed++
	}
	return processed, failed, nil
}

// ProcessDocument runs the latest queued job of one document immediately.
func (p *Processor) ProcessDocument(ctx context.Context, operatorID, documentID string) error {
	if _, err := p.svc.GetByID(operatorID, documentID); err != nil {
		return err
	}
	job, err := p.svc.repo.GetLatestJobForDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if job.Status != JobQueued {
		return core.NewValidationError(errors.New("no queued job for this document"))
	}
	return p.ProcessJob(ctx, job)
}

// ProcessJob runs one job through queued→processing→{completed,failed}.
func (p *Processor) ProcessJob(ctx context.Context, job Job) error {
	up, err := p.svc.repo.GetUpload(ctx, job.DocumentID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	job.Status = JobProcessing
	job.StartedAt = &now
	if job, err = p.svc.repo.UpdateJob(ctx, job); err != nil {
		return err
	}
	up.ProcessingStatus = StatusProcessing
	if up, err = p.svc.repo.UpdateUpload(ctx, up); err != nil {
		return err
	}

	if job.JobType != JobTypeDocumentExtraction {
		// nothing to run for other job types yet
		return p.svc.applyResult(ctx, job, up, ExtractionResult{})
	}

	result, err := p.extract(ctx, up)
	if err != nil {
		if ferr := p.svc.failJob(ctx, job, up, err); ferr != nil {
			return ferr
		}
		return errors.Wrap(err, "extracting document")
	}
	return p.svc.applyResult(ctx, job, up, result)
}

func (p *Processor) extract(ctx context.Context, up Upload) (ExtractionResult, error) {
	content, err := p.readContent(ctx, up)
	if err != nil {
		return ExtractionResult{}, err
	}
	if len(content) < minContentLength {
		return ExtractionResult{
			ExtractedTours: []ExtractedTour{},
			ProcessingNotes: []string{
				fmt.Sprintf("Document content too short: %d characters", len(content)),
			},
		}, nil
	}

	result, err := p.extractor.Extract(ctx, content, up.FileType)
	if err != nil {
		return ExtractionResult{}, err
	}
	if result.ProcessingMetadata == nil {
		result.ProcessingMetadata = make(map[string]string)
	}
	result.ProcessingMetadata["processed_by"] = p.extractor.Name()
	result.ProcessingMetadata["processing_time"] = time.Now().UTC().Format(time.RFC3339)
	result.ProcessingMetadata["document_id"] = up.ID
	result.ProcessingMetadata["file_type"] = up.FileType
	return result, nil
}

func (p *Processor) readContent(ctx context.Context, up Upload) (string, error) {
	rc, err := p.svc.files.Open(ctx, up.StoragePath)
	if err != nil {
		return "", errors.Wrapf(err, "opening stored file %s", up.StoragePath)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", errors.Wrap(err, "reading stored file")
	}
	return string(raw), nil
}
