package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	echoapi "github.com/voyago/voyago/apps/api/echo"
	"github.com/voyago/voyago/core/document"
	"github.com/voyago/voyago/core/operator"
	"github.com/voyago/voyago/core/tour"
	inmemdb "github.com/voyago/voyago/storage/database/inmem"
	testutil "github.com/voyago/voyago/tests"
)

// brochureContent is long enough to pass the minimum content check.
const brochureContent = `Sahara Desert Trek - 5 days through the Moroccan Sahara.
Price: 850 EUR per person, groups of up to 12. Camel rides, berber camps,
sandboarding and a night under the stars at Erg Chebbi included.`

// stubConfidence mirrors what extractorStub reports; the document stores it
// as a percentage.
var stubConfidence = 0.92

func newUploadRequest(t *testing.T, token, filename, content string) (*http.Request, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile(): %v", err)
	}
	if _, err = fw.Write([]byte(content)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func uploadDocument(t *testing.T, token, filename, content string) document.Upload {
	req, rec := newUploadRequest(t, token, filename, content)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var up document.Upload
	if err := json.Unmarshal(rec.Body.Bytes(), &up); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	return up
}

func Test_documentApi_upload(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/documents")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("file required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/documents", getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file": "a file is required"}),
		}, rec)
	})

	t.Run("unsupported file type", func(t *testing.T) {
		req, rec := newUploadRequest(t, getToken(t, staff), "brochure.exe", brochureContent)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file_type": "file_type must be one of [txt pdf docx xlsx]"}),
		}, rec)
	})

	t.Run("uploaded and queued", func(t *testing.T) {
		up := uploadDocument(t, getToken(t, staff), "sahara-trek.txt", brochureContent)

		if up.OperatorID != op.ID {
			t.Errorf("OperatorID = %q; want %q", up.OperatorID, op.ID)
		}
		if up.FileName != "sahara-trek.txt" {
			t.Errorf("FileName = %q; want %q", up.FileName, "sahara-trek.txt")
		}
		if up.FileType != "txt" {
			t.Errorf("FileType = %q; want %q", up.FileType, "txt")
		}
		if up.SizeBytes != int64(len(brochureContent)) {
			t.Errorf("SizeBytes = %d; want %d", up.SizeBytes, len(brochureContent))
		}
		if up.ProcessingStatus != document.StatusPending {
			t.Errorf("ProcessingStatus = %q; want %q", up.ProcessingStatus, document.StatusPending)
		}

		// an extraction job is queued right away
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/documents/%s/status", up.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, document.Status{
				ID:               up.ID,
				ProcessingStatus: document.StatusPending,
				JobStatus:        document.JobQueued,
			}),
		}, rec)
	})
}

func Test_documentApi_process(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	up := uploadDocument(t, getToken(t, staff), "sahara-trek.txt", brochureContent)

	wantScore := stubConfidence * 100

	t.Run("processed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/process", up.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, document.Status{
				ID:               up.ID,
				ProcessingStatus: document.StatusCompleted,
				ConfidenceScore:  wantScore,
				JobStatus:        document.JobCompleted,
				Done:             true,
			}),
		}, rec)
	})

	t.Run("draft tour created from extraction", func(t *testing.T) {
		tours, err := tourSvc.Query(op.ID, nil)
		if err != nil {
			t.Fatalf("Query(): %v", err)
		}
		if len(tours) != 1 {
			t.Fatalf("len(tours) = %d; want 1", len(tours))
		}
		trip := tours[0]
		if trip.Title != "Sahara Desert Trek" {
			t.Errorf("Title = %q; want %q", trip.Title, "Sahara Desert Trek")
		}
		if trip.Status != tour.StatusDraft {
			t.Errorf("Status = %q; want %q", trip.Status, tour.StatusDraft)
		}
		if trip.SourceDocumentID != up.ID {
			t.Errorf("SourceDocumentID = %q; want %q", trip.SourceDocumentID, up.ID)
		}
		if trip.AIExtractionConfidence != wantScore {
			t.Errorf("AIExtractionConfidence = %v; want %v", trip.AIExtractionConfidence, wantScore)
		}
		if trip.AIProcessedAt == nil {
			t.Error("AIProcessedAt not set")
		}
	})

	t.Run("no queued job left", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/process", up.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "no queued job for this document"}),
		}, rec)
	})

	t.Run("completed documents cannot be retried", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/retry", up.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "only failed documents can be retried"}),
		}, rec)
	})

	t.Run("create another tour on demand", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/create-tour", up.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var trip tour.Tour
		if err := json.Unmarshal(rec.Body.Bytes(), &trip); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if trip.Title != "Sahara Desert Trek" {
			t.Errorf("Title = %q; want %q", trip.Title, "Sahara Desert Trek")
		}
		if trip.SourceDocumentID != up.ID {
			t.Errorf("SourceDocumentID = %q; want %q", trip.SourceDocumentID, up.ID)
		}
	})
}

func Test_documentApi_stop(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	up := uploadDocument(t, getToken(t, staff), "sahara-trek.txt", brochureContent)

	t.Run("stopped", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/stop", up.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got document.Upload
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if got.ProcessingStatus != document.StatusCancelled {
			t.Errorf("ProcessingStatus = %q; want %q", got.ProcessingStatus, document.StatusCancelled)
		}
	})

	t.Run("already finished", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/stop", up.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "processing already finished"}),
		}, rec)
	})

	t.Run("cancelled job does not process", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/process", up.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "no queued job for this document"}),
		}, rec)
	})
}

func Test_documentApi_createTour_unprocessed(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	up := uploadDocument(t, getToken(t, staff), "sahara-trek.txt", brochureContent)

	req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/documents/%s/create-tour", up.ID), getToken(t, staff))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: "document has no completed extraction"}),
	}, rec)
}

func Test_documentApi_webhook(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	up := uploadDocument(t, getToken(t, staff), "sahara-trek.txt", brochureContent)

	jobs, err := inmemdb.NewDocumentRepository(db).QueryJobs(context.Background(), document.JobQueued)
	if err != nil {
		t.Fatalf("QueryJobs(): %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d; want 1", len(jobs))
	}
	job := jobs[0]

	t.Run("job_id required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/ai-webhook", marchallObj(t, map[string]string{}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"job_id": "this field is required"}),
		}, rec)
	})

	t.Run("unknown job", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/ai-webhook", marchallObj(t, echoapi.WebhookRequest{JobID: "b33f"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "processing job not found"}),
		}, rec)
	})

	t.Run("completed", func(t *testing.T) {
		body := marchallObj(t, echoapi.WebhookRequest{
			JobID: job.ID,
			Result: document.ExtractionResult{
				ExtractionConfidence: 0.5,
				ExtractedTours: []document.ExtractedTour{
					{Title: "Atlas Mountains Hike", Destination: "Morocco", DurationDays: 3, PricePerPerson: 400},
				},
			},
		})
		req, rec := newRequest(http.MethodPost, "/v1/ai-webhook", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "job completed"}),
		}, rec)

		got, err := docSvc.GetByID(op.ID, up.ID)
		if err != nil {
			t.Fatalf("GetByID(): %v", err)
		}
		if got.ProcessingStatus != document.StatusCompleted {
			t.Errorf("ProcessingStatus = %q; want %q", got.ProcessingStatus, document.StatusCompleted)
		}
		if got.ConfidenceScore != 50 {
			t.Errorf("ConfidenceScore = %v; want 50", got.ConfidenceScore)
		}
	})

	t.Run("duplicate delivery", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/ai-webhook", marchallObj(t, echoapi.WebhookRequest{JobID: job.ID}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "job already finished"}),
		}, rec)
	})
}

func Test_documentApi_queryAndDestroy(t *testing.T) {
	db.Reset()

	op := testutil.CreateOperator(t, usrRepo, "Atlas Tours", "Atlas Tours BV", "info@atlastours.test")
	staff := testutil.CreateUser(t, usrRepo, op.ID, "Jo Mbeki", "jombeki", "jo@atlastours.test", "", operator.RoleStaff, true)
	up := uploadDocument(t, getToken(t, staff), "sahara-trek.txt", brochureContent)

	otherOp := testutil.CreateOperator(t, usrRepo, "Nomad Trips", "Nomad Trips Ltd", "hello@nomadtrips.test")
	outsider := testutil.CreateUser(t, usrRepo, otherOp.ID, "Outside R", "outsider1", "out@nomadtrips.test", "", operator.RoleOwner, true)

	t.Run("listed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/documents", getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, up)}, rec)
	})

	t.Run("filter by status", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/documents?status="+document.StatusFailed, getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, []document.Upload{})}, rec)
	})

	t.Run("invisible to other operators", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/documents/%s", up.ID), getToken(t, outsider))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "document not found"}),
		}, rec)
	})

	t.Run("deleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/documents/%s", up.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/documents/%s", up.ID), getToken(t, staff))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "document not found"}),
		}, rec)
	})
}
