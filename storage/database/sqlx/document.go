package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/document"
)

type documentRepository struct {
	exec core.DBExecutor
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(exec core.DBExecutor) *documentRepository {
	return &documentRepository{exec: exec}
}

type uploadRow struct {
	ID         string `db:"id"`
	OperatorID string `db:"operator_id"`

	FileName    string `db:"file_name"`
	FileType    string `db:"file_type"`
	StoragePath string `db:"storage_path"`
	SizeBytes   int64  `db:"size_bytes"`

	ProcessingStatus string  `db:"processing_status"`
	ConfidenceScore  float64 `db:"confidence_score"`
	ExtractedData    []byte  `db:"extracted_data"`
	ProcessingErrors string  `db:"processing_errors"`
	ProcessingNotes  string  `db:"processing_notes"`

	UploadedAt  time.Time    `db:"uploaded_at"`
	ProcessedAt sql.NullTime `db:"processed_at"`
}

type jobRow struct {
	ID         string `db:"id"`
	DocumentID string `db:"document_id"`
	OperatorID string `db:"operator_id"`

	JobType      string `db:"job_type"`
	Status       string `db:"status"`
	ResultData   []byte `db:"result_data"`
	ErrorMessage string `db:"error_message"`

	CreatedAt   time.Time    `db:"created_at"`
	StartedAt   sql.NullTime `db:"started_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
}

func (repo documentRepository) pack(up document.Upload) uploadRow {
	row := uploadRow{
		ID:               up.ID,
		OperatorID:       up.OperatorID,
		FileName:         up.FileName,
		FileType:         up.FileType,
		StoragePath:      up.StoragePath,
		SizeBytes:        up.SizeBytes,
		ProcessingStatus: up.ProcessingStatus,
		ConfidenceScore:  up.ConfidenceScore,
		ExtractedData:    up.ExtractedData,
		ProcessingErrors: up.ProcessingErrors,
		ProcessingNotes:  up.ProcessingNotes,
		UploadedAt:       up.UploadedAt.UTC(),
	}
	if up.ProcessedAt != nil {
		row.ProcessedAt = sql.NullTime{Time: up.ProcessedAt.UTC(), Valid: true}
	}
	return row
}

func (repo documentRepository) unpack(row uploadRow) document.Upload {
	up := document.Upload{
		ID:               row.ID,
		OperatorID:       row.OperatorID,
		FileName:         row.FileName,
		FileType:         row.FileType,
		StoragePath:      row.StoragePath,
		SizeBytes:        row.SizeBytes,
		ProcessingStatus: row.ProcessingStatus,
		ConfidenceScore:  row.ConfidenceScore,
		ExtractedData:    row.ExtractedData,
		ProcessingErrors: row.ProcessingErrors,
		ProcessingNotes:  row.ProcessingNotes,
		UploadedAt:       row.UploadedAt,
	}
	if row.ProcessedAt.Valid {
		at := row.ProcessedAt.Time
		up.ProcessedAt = &at
	}
	return up
}

func (repo documentRepository) packJob(job document.Job) jobRow {
	row := jobRow{
		ID:           job.ID,
		DocumentID:   job.DocumentID,
		OperatorID:   job.OperatorID,
		JobType:      job.JobType,
		Status:       job.Status,
		ResultData:   job.ResultData,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt.UTC(),
	}
	if job.StartedAt != nil {
		row.StartedAt = sql.NullTime{Time: job.StartedAt.UTC(), Valid: true}
	}
	if job.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: job.CompletedAt.UTC(), Valid: true}
	}
	return row
}

func (repo documentRepository) unpackJob(row jobRow) document.Job {
	job := document.Job{
		ID:           row.ID,
		DocumentID:   row.DocumentID,
		OperatorID:   row.OperatorID,
		JobType:      row.JobType,
		Status:       row.Status,
		ResultData:   row.ResultData,
		ErrorMessage: row.ErrorMessage,
		CreatedAt:    row.CreatedAt,
	}
	if row.StartedAt.Valid {
		at := row.StartedAt.Time
		job.StartedAt = &at
	}
	if row.CompletedAt.Valid {
		at := row.CompletedAt.Time
		job.CompletedAt = &at
	}
	return job
}

// trapNoRowsErr maps psql "no rows" err to the package sentinel
func (repo documentRepository) trapNoRowsErr(err, sentinel error, msg string) error {
	if err == sql.ErrNoRows {
		return sentinel
	}
	return errors.Wrap(err, msg)
}

func (repo documentRepository) CreateUpload(ctx context.Context, up document.Upload, exec ...core.DBExecutor) (document.Upload, error) {
	up.ID = uuid.New().String()
	row := repo.pack(up)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		INSERT INTO document_upload (
			id, operator_id, file_name, file_type, storage_path, size_bytes,
			processing_status, confidence_score, extracted_data, processing_errors, processing_notes,
			uploaded_at, processed_at
		) VALUES (
			:id, :operator_id, :file_name, :file_type, :storage_path, :size_bytes,
			:processing_status, :confidence_score, :extracted_data, :processing_errors, :processing_notes,
			:uploaded_at, :processed_at
		)`, row)
	if err != nil {
		return document.Upload{}, errors.Wrap(err, "inserting document upload")
	}
	return repo.unpack(row), nil
}

func (repo documentRepository) QueryUploads(ctx context.Context, operatorID string, filter *document.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]document.Upload, error) {
	exe := getExec(repo.exec, exec)

	conds := []string{"operator_id = ?"}
	args := []interface{}{operatorID}

	if filter != nil {
		if filter.Status != "" {
			conds = append(conds, "processing_status = ?")
			args = append(args, filter.Status)
		}
		if filter.FileType != "" {
			conds = append(conds, "file_type = ?")
			args = append(args, filter.FileType)
		}
		if filter.Search != "" {
			conds = append(conds, "file_name ILIKE ?")
			args = append(args, "%"+filter.Search+"%")
		}
	}

	query := `SELECT * FROM document_upload WHERE ` + strings.Join(conds, " AND ") + orderBy(ordering)
	var rows []uploadRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying document uploads")
	}

	uploads := make([]document.Upload, 0, len(rows))
	for _, row := range rows {
		uploads = append(uploads, repo.unpack(row))
	}
	return uploads, nil
}

func (repo documentRepository) GetUpload(ctx context.Context, id string, exec ...core.DBExecutor) (document.Upload, error) {
	if _, err := uuid.Parse(id); err != nil {
		return document.Upload{}, document.ErrNotFound
	}
	exe := getExec(repo.exec, exec)

	var row uploadRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(`SELECT * FROM document_upload WHERE id = ?`), id); err != nil {
		return document.Upload{}, repo.trapNoRowsErr(err, document.ErrNotFound, "finding document upload by ID")
	}
	return repo.unpack(row), nil
}

func (repo documentRepository) UpdateUpload(ctx context.Context, up document.Upload, exec ...core.DBExecutor) (document.Upload, error) {
	row := repo.pack(up)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		UPDATE document_upload SET
			file_name = :file_name, file_type = :file_type, storage_path = :storage_path,
			size_bytes = :size_bytes, processing_status = :processing_status,
			confidence_score = :confidence_score, extracted_data = :extracted_data,
			processing_errors = :processing_errors, processing_notes = :processing_notes,
			processed_at = :processed_at
		WHERE id = :id`, row)
	if err != nil {
		return document.Upload{}, errors.Wrap(err, "updating document upload")
	}
	return repo.unpack(row), nil
}

func (repo documentRepository) DeleteUploadsByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)

	query, args, err := sqlx.In(`DELETE FROM document_upload WHERE operator_id = ? AND id IN (?)`, operatorID, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building document deletion query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting document uploads")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo documentRepository) CreateJob(ctx context.Context, job document.Job, exec ...core.DBExecutor) (document.Job, error) {
	job.ID = uuid.New().String()
	row := repo.packJob(job)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		INSERT INTO ai_processing_job (
			id, document_id, operator_id, job_type, status, result_data, error_message,
			created_at, started_at, completed_at
		) VALUES (
			:id, :document_id, :operator_id, :job_type, :status, :result_data, :error_message,
			:created_at, :started_at, :completed_at
		)`, row)
	if err != nil {
		return document.Job{}, errors.Wrap(err, "inserting processing job")
	}
	return repo.unpackJob(row), nil
}

func (repo documentRepository) QueryJobs(ctx context.Context, status string, exec ...core.DBExecutor) ([]document.Job, error) {
	exe := getExec(repo.exec, exec)

	query := `SELECT * FROM ai_processing_job`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC`

	var rows []jobRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying processing jobs")
	}

	jobs := make([]document.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, repo.unpackJob(row))
	}
	return jobs, nil
}

func (repo documentRepository) GetJob(ctx context.Context, id string, exec ...core.DBExecutor) (document.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return document.Job{}, document.ErrJobNotFound
	}
	exe := getExec(repo.exec, exec)

	var row jobRow
	if err := exe.GetContext(ctx, &row, exe.Rebind(`SELECT * FROM ai_processing_job WHERE id = ?`), id); err != nil {
		return document.Job{}, repo.trapNoRowsErr(err, document.ErrJobNotFound, "finding processing job by ID")
	}
	return repo.unpackJob(row), nil
}

func (repo documentRepository) GetLatestJobForDocument(ctx context.Context, documentID string, exec ...core.DBExecutor) (document.Job, error) {
	exe := getExec(repo.exec, exec)

	var row jobRow
	query := `SELECT * FROM ai_processing_job WHERE document_id = ? ORDER BY created_at DESC LIMIT 1`
	if err := exe.GetContext(ctx, &row, exe.Rebind(query), documentID); err != nil {
		return document.Job{}, repo.trapNoRowsErr(err, document.ErrJobNotFound, "finding latest processing job")
	}
	return repo.unpackJob(row), nil
}

func (repo documentRepository) UpdateJob(ctx context.Context, job document.Job, exec ...core.DBExecutor) (document.Job, error) {
	row := repo.packJob(job)
	_, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), `
		UPDATE ai_processing_job SET
			job_type = :job_type, status = :status, result_data = :result_data,
			error_message = :error_message, started_at = :started_at, completed_at = :completed_at
		WHERE id = :id`, row)
	if err != nil {
		return document.Job{}, errors.Wrap(err, "updating processing job")
	}
	return repo.unpackJob(row), nil
}
