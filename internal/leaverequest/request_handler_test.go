package leaverequest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Nambirajanmani/HRMS-sub000/internal/leaverequest"
	requesterrors "github.com/Nambirajanmani/HRMS-sub000/internal/leaverequest/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeRequestService struct {
	createFn      func(ctx context.Context, companyID, actorID string, req leaverequest.CreateRequestRequest) (leaverequest.RequestResponse, error)
	getAllFn      func(ctx context.Context, companyID string, filter leaverequest.ListFilter) ([]leaverequest.RequestResponse, int64, error)
	getByIDFn     func(ctx context.Context, companyID, id string) (leaverequest.RequestResponse, error)
	updateFn      func(ctx context.Context, companyID, actorID, id string, req leaverequest.UpdateRequestRequest) (leaverequest.RequestResponse, error)
	approveFn     func(ctx context.Context, companyID, actorID, id string) (leaverequest.RequestResponse, error)
	rejectFn      func(ctx context.Context, companyID, actorID, id, rejectionReason string) (leaverequest.RequestResponse, error)
	cancelFn      func(ctx context.Context, companyID, actorID, id, cancellationReason string) (leaverequest.RequestResponse, error)
	bulkApproveFn func(ctx context.Context, companyID, actorID string, req leaverequest.BulkApproveRequest) (leaverequest.BulkApproveResponse, error)
}

func (f *fakeRequestService) Create(ctx context.Context, companyID, actorID string, req leaverequest.CreateRequestRequest) (leaverequest.RequestResponse, error) {
	return f.createFn(ctx, companyID, actorID, req)
}
func (f *fakeRequestService) GetAll(ctx context.Context, companyID string, filter leaverequest.ListFilter) ([]leaverequest.RequestResponse, int64, error) {
	return f.getAllFn(ctx, companyID, filter)
}
func (f *fakeRequestService) GetByID(ctx context.Context, companyID, id string) (leaverequest.RequestResponse, error) {
	return f.getByIDFn(ctx, companyID, id)
}
func (f *fakeRequestService) Update(ctx context.Context, companyID, actorID, id string, req leaverequest.UpdateRequestRequest) (leaverequest.RequestResponse, error) {
	return f.updateFn(ctx, companyID, actorID, id, req)
}
func (f *fakeRequestService) Approve(ctx context.Context, companyID, actorID, id string) (leaverequest.RequestResponse, error) {
	return f.approveFn(ctx, companyID, actorID, id)
}
func (f *fakeRequestService) Reject(ctx context.Context, companyID, actorID, id, rejectionReason string) (leaverequest.RequestResponse, error) {
	return f.rejectFn(ctx, companyID, actorID, id, rejectionReason)
}
func (f *fakeRequestService) Cancel(ctx context.Context, companyID, actorID, id, cancellationReason string) (leaverequest.RequestResponse, error) {
	return f.cancelFn(ctx, companyID, actorID, id, cancellationReason)
}
func (f *fakeRequestService) BulkApprove(ctx context.Context, companyID, actorID string, req leaverequest.BulkApproveRequest) (leaverequest.BulkApproveResponse, error) {
	return f.bulkApproveFn(ctx, companyID, actorID, req)
}

func TestRequestHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		companyID := uuid.New().String()
		actorID := uuid.New().String()
		employeeID := uuid.New().String()
		policyID := uuid.New().String()

		svc := &fakeRequestService{
			createFn: func(ctx context.Context, cid, aid string, req leaverequest.CreateRequestRequest) (leaverequest.RequestResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, actorID, aid)
				return leaverequest.RequestResponse{
					ID:         uuid.New().String(),
					CompanyID:  cid,
					EmployeeID: req.EmployeeID,
					PolicyID:   req.PolicyID,
					StartDate:  req.StartDate,
					EndDate:    req.EndDate,
					Days:       5,
					Status:     string(leaverequest.StatusPending),
					CreatedBy:  aid,
				}, nil
			},
		}

		h := leaverequest.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"employee_id":"` + employeeID + `","policy_id":"` + policyID + `","start_date":"2031-03-10","end_date":"2031-03-14","reason":"family trip"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("company_id", companyID)
		c.Set("user_id_validated", actorID)

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leaverequest.RequestResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, 5, got.Days)
		assert.Equal(t, string(leaverequest.StatusPending), got.Status)
	})

	t.Run("negative validation error", func(t *testing.T) {
		h := leaverequest.NewHandler(&fakeRequestService{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("company_id", uuid.New().String())

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
	})
}

func TestRequestHandler_Approve(t *testing.T) {
	t.Run("negative invalid transition maps to 422", func(t *testing.T) {
		svc := &fakeRequestService{
			approveFn: func(ctx context.Context, cid, aid, id string) (leaverequest.RequestResponse, error) {
				return leaverequest.RequestResponse{}, requesterrors.ErrInvalidStatusTransition
			},
		}

		h := leaverequest.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests/x/approve", nil)
		c.Set("company_id", uuid.New().String())
		c.Set("user_id_validated", uuid.New().String())
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

		h.Approve(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INVALID_STATUS_TRANSITION", env.Error.Code)
	})
}

func TestRequestHandler_BulkApprove(t *testing.T) {
	t.Run("success returns per-item results", func(t *testing.T) {
		idA := uuid.New().String()
		idB := uuid.New().String()

		svc := &fakeRequestService{
			bulkApproveFn: func(ctx context.Context, cid, aid string, req leaverequest.BulkApproveRequest) (leaverequest.BulkApproveResponse, error) {
				assert.Equal(t, []string{idA, idB}, req.RequestIDs)
				return leaverequest.BulkApproveResponse{
					Approved: []leaverequest.RequestResponse{{ID: idA, Status: string(leaverequest.StatusApproved)}},
					Errors: []leaverequest.BulkApproveError{
						{ID: idB, Code: "INVALID_STATUS_TRANSITION", Message: "leave request status transition is not allowed"},
					},
					Summary: leaverequest.BulkApproveSummary{Total: 2, Approved: 1, Failed: 1},
				}, nil
			},
		}

		h := leaverequest.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"request_ids":["` + idA + `","` + idB + `"]}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leave-requests/bulk-approve", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("company_id", uuid.New().String())
		c.Set("user_id_validated", uuid.New().String())

		h.BulkApprove(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leaverequest.BulkApproveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, 1, got.Summary.Approved)
		assert.Equal(t, 1, got.Summary.Failed)
	})
}
