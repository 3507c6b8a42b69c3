package document

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/voyago/voyago/core"
)

// Upload processing statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Job statuses
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
	JobCancelled  = "cancelled"
)

// Job types
const (
	JobTypeDocumentExtraction = "document_extraction"
)

// Supported upload file types
var FileTypes = []string{"txt", "pdf", "docx", "xlsx"}

// Upload is one uploaded document and the state of its AI extraction.
// ConfidenceScore is a percentage (0-100).
type Upload struct {
	ID         string `json:"id"`
	OperatorID string `json:"operator_id"`

	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	StoragePath string `json:"-"`
	SizeBytes   int64  `json:"size_bytes"`

	ProcessingStatus string  `json:"processing_status"`
	ConfidenceScore  float64 `json:"confidence_score"`
	ExtractedData    []byte  `json:"-"` // raw extraction JSON
	ProcessingErrors string  `json:"processing_errors,omitempty"`
	ProcessingNotes  string  `json:"processing_notes,omitempty"`

	UploadedAt  time.Time  `json:"uploaded_date"` // UTC
	ProcessedAt *time.Time `json:"processed_date,omitempty"`
}

// Job tracks the lifecycle of one extraction request for a document.
// A document may accumulate several jobs through retries; its status always
// mirrors the latest one.
type Job struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	OperatorID string `json:"operator_id"`

	JobType      string `json:"job_type"`
	Status       string `json:"status"`
	ResultData   []byte `json:"-"` // raw result JSON
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_date"` // UTC
	StartedAt   *time.Time `json:"started_date,omitempty"`
	CompletedAt *time.Time `json:"completed_date,omitempty"`
}

// Done reports whether the job reached a terminal status.
func (j Job) Done() bool {
	switch j.Status {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Status is the payload returned by the status polling endpoint.
type Status struct {
	ID               string  `json:"id"`
	ProcessingStatus string  `json:"processing_status"`
	ConfidenceScore  float64 `json:"confidence_score"`
	JobStatus        string  `json:"job_status,omitempty"`
	ErrorMessage     string  `json:"error_message,omitempty"`
	Done             bool    `json:"done"`
}

// NewUpload contains the metadata accompanying an uploaded file.
type NewUpload struct {
	FileName string `json:"file_name" validate:"required"`
	FileType string `json:"file_type" validate:"required,oneof=txt pdf docx xlsx"`
}

func (nu *NewUpload) Validate(validate *validator.Validate) error {
	nu.FileName = core.CleanString(nu.FileName)
	nu.FileType = core.CleanString(nu.FileType, true /* lower */)
	return validate.Struct(nu)
}

// QueryFilter applies AND operation on its available fields.
type QueryFilter struct {
	Status   string `query:"status"`
	FileType string `query:"file_type"`
	Search   string `query:"search"`
}

// ExtractedTour is one tour pulled out of a document by the extraction model.
type ExtractedTour struct {
	Title            string  `json:"title"`
	Destination      string  `json:"destination"`
	DurationDays     int     `json:"duration_days"`
	PricingType      string  `json:"pricing_type"`
	PricePerPerson   float64 `json:"price_per_person"`
	PricePerGroup    float64 `json:"price_per_group"`
	MaxGroupSize     int     `json:"max_group_size"`
	Description      string  `json:"description"`
	Highlights       string  `json:"highlights"`
	IncludedServices string  `json:"included_services"`
	ExcludedServices string  `json:"excluded_services"`
	DifficultyLevel  string  `json:"difficulty_level"`
	SeasonalDemand   string  `json:"seasonal_demand"`
	CostPerPerson    float64 `json:"cost_per_person"`
	OperationalCosts float64 `json:"operational_costs"`
}

// ExtractionResult is the structured output of one extraction run.
// ExtractionConfidence is a ratio (0-1); Upload.ConfidenceScore stores it as
// a percentage.
type ExtractionResult struct {
	ExtractionConfidence float64           `json:"extraction_confidence"`
	ExtractedTours       []ExtractedTour   `json:"extracted_tours"`
	ProcessingNotes      []string          `json:"processing_notes"`
	ProcessingMetadata   map[string]string `json:"processing_metadata,omitempty"`
}
