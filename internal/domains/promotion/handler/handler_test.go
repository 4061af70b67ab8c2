package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelstore-backend/internal/domains/promotion/repository"
	"novelstore-backend/internal/domains/promotion/service"
	"novelstore-backend/internal/shared"
)

var handlerNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: shared.QueueReports, Type: task.Type()}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

func setupRouter(t *testing.T, queue TaskEnqueuer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	require.NoError(t, repository.SeedDemoData(context.Background(), repo, handlerNow))
	svc := service.NewPromotionService(repo, repository.NewMemoryPurchaseHistory("returning"), nil, service.Options{
		RoundingPlaces: 2,
		Clock:          func() time.Time { return handlerNow },
	})

	public := NewPublicHandler(svc)
	admin := NewAdminHandler(svc, queue)

	r := gin.New()
	r.POST("/coupons/:code/validate", public.ValidateCoupon)
	r.POST("/coupons/:code/apply", public.ApplyCoupon)
	r.GET("/offers/active", public.GetActiveOffer)
	r.POST("/volume-discount/evaluate", public.EvaluateVolumeDiscount)

	r.POST("/admin/coupons", admin.CreateCoupon)
	r.GET("/admin/coupons", admin.ListCoupons)
	r.GET("/admin/coupons/:id", admin.GetCoupon)
	r.PATCH("/admin/coupons/:id/status", admin.UpdateCouponStatus)
	r.DELETE("/admin/coupons/:id", admin.DeleteCoupon)
	r.GET("/admin/coupons/:id/redemptions", admin.GetRedemptionHistory)
	r.POST("/admin/reports/coupons", func(c *gin.Context) {
		c.Set(shared.ContextKeyUserID, "admin-1")
		admin.ExportCouponReport(c)
	})
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestPublicHandler_ValidateCoupon(t *testing.T) {
	r := setupRouter(t, nil)

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantValid  bool
		wantReason string
	}{
		{"valid", "/coupons/SAGA20/validate", gin.H{"user_id": "u1", "novel_id": "novel-2"}, http.StatusOK, true, ""},
		{"wrong novel", "/coupons/SAGA20/validate", gin.H{"user_id": "u1", "novel_id": "novel-9"}, http.StatusOK, false, "ITEM_NOT_ELIGIBLE"},
		{"below minimum", "/coupons/SAVE5/validate", gin.H{"user_id": "u1", "purchase_amount": "20"}, http.StatusOK, false, "MINIMUM_NOT_MET"},
		{"returning customer", "/coupons/WELCOME10/validate", gin.H{"user_id": "returning"}, http.StatusOK, false, "NOT_FIRST_PURCHASE"},
		{"unknown code", "/coupons/NOPE/validate", gin.H{"user_id": "u1"}, http.StatusOK, false, "COUPON_NOT_FOUND"},
		{"missing user", "/coupons/SAVE5/validate", gin.H{}, http.StatusBadRequest, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				require.NotNil(t, env.Error)
				assert.Equal(t, "VAL_INVALID_INPUT", env.Error.Code)
				return
			}

			var result struct {
				Valid bool   `json:"valid"`
				Code  string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &result))
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantReason, result.Code)
		})
	}
}

func TestPublicHandler_ApplyCoupon(t *testing.T) {
	r := setupRouter(t, nil)

	w, env := do(t, r, http.MethodPost, "/coupons/WELCOME10/apply", gin.H{"user_id": "new", "purchase_amount": "400"})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Success        bool   `json:"success"`
		FinalAmount    string `json:"final_amount"`
		DiscountAmount string `json:"discount_amount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Success)
	// 10% của 400 bị cap ở 25
	assert.Equal(t, "25", result.DiscountAmount)
	assert.Equal(t, "375", result.FinalAmount)

	w, _ = do(t, r, http.MethodPost, "/coupons/WELCOME10/apply", gin.H{"user_id": "new", "purchase_amount": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicHandler_ApplyCouponRequiresAmount(t *testing.T) {
	r := setupRouter(t, nil)

	for i := 0; i < 3; i++ {
		w, env := do(t, r, http.MethodPost, "/coupons/SAVE5/apply", gin.H{"user_id": "u"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VAL_INVALID_INPUT", env.Error.Code)
	}

	w, env := do(t, r, http.MethodGet, "/admin/coupons?status=all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var coupons []struct {
		Code         string `json:"code"`
		CurrentUsage int    `json:"current_usage"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &coupons))
	for _, c := range coupons {
		assert.Zero(t, c.CurrentUsage, c.Code)
	}
}

func TestPublicHandler_GetActiveOffer(t *testing.T) {
	r := setupRouter(t, nil)

	w, env := do(t, r, http.MethodGet, "/offers/active?novel_id=novel-1&price=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		HasDiscount bool   `json:"has_discount"`
		FinalPrice  string `json:"final_price"`
		Offer       struct {
			Name string `json:"name"`
		} `json:"offer"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.HasDiscount)
	// fixed 3 > 15% của 10
	assert.Equal(t, "Featured novel", result.Offer.Name)
	assert.Equal(t, "7", result.FinalPrice)

	for _, path := range []string{"/offers/active?price=10", "/offers/active?novel_id=n&price=abc", "/offers/active?novel_id=n&price=-2"} {
		w, _ := do(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestPublicHandler_EvaluateVolumeDiscount(t *testing.T) {
	r := setupRouter(t, nil)

	w, env := do(t, r, http.MethodPost, "/volume-discount/evaluate", gin.H{"quantity": 7, "total_price": "100"})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		HasDiscount bool   `json:"has_discount"`
		FinalPrice  string `json:"final_price"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.HasDiscount)
	assert.Equal(t, "80", result.FinalPrice)

	w, _ = do(t, r, http.MethodPost, "/volume-discount/evaluate", gin.H{"quantity": -1, "total_price": "100"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_CouponLifecycle(t *testing.T) {
	r := setupRouter(t, nil)

	w, env := do(t, r, http.MethodPost, "/admin/coupons", gin.H{
		"code":           "FLASH",
		"discount_type":  "percentage",
		"discount_value": "30",
		"start_date":     handlerNow.Add(-time.Hour).Format(time.RFC3339),
		"end_date":       handlerNow.Add(time.Hour).Format(time.RFC3339),
		"usage_limit":    1,
		"is_active":      true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, env = do(t, r, http.MethodPost, "/admin/coupons", gin.H{
		"code":           "FLASH",
		"discount_type":  "percentage",
		"discount_value": "5",
		"start_date":     handlerNow.Format(time.RFC3339),
		"end_date":       handlerNow.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VAL_DUPLICATE_CODE", env.Error.Code)

	w, env = do(t, r, http.MethodGet, "/admin/coupons?status=active&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 4, env.Meta.Total)

	do(t, r, http.MethodPost, "/coupons/FLASH/apply", gin.H{"user_id": "u1", "purchase_amount": "10"})

	w, env = do(t, r, http.MethodGet, "/admin/coupons/"+created.ID.String()+"/redemptions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.Meta.Total)

	w, _ = do(t, r, http.MethodPatch, "/admin/coupons/"+created.ID.String()+"/status", gin.H{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodPatch, "/admin/coupons/"+created.ID.String()+"/status", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/admin/coupons/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, env = do(t, r, http.MethodGet, "/admin/coupons/"+created.ID.String(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RES_NOT_FOUND", env.Error.Code)

	w, _ = do(t, r, http.MethodGet, "/admin/coupons/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, "/admin/coupons?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_ExportCouponReport(t *testing.T) {
	t.Run("queue disabled", func(t *testing.T) {
		r := setupRouter(t, nil)
		w, env := do(t, r, http.MethodPost, "/admin/reports/coupons", nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "SYS_QUEUE_UNAVAILABLE", env.Error.Code)
	})

	t.Run("enqueued", func(t *testing.T) {
		queue := &fakeQueue{}
		r := setupRouter(t, queue)
		w, env := do(t, r, http.MethodPost, "/admin/reports/coupons", nil)
		require.Equal(t, http.StatusAccepted, w.Code)

		var body struct {
			TaskID string `json:"task_id"`
			Queue  string `json:"queue"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &body))
		assert.Equal(t, "task-1", body.TaskID)
		assert.Equal(t, shared.QueueReports, body.Queue)

		require.Len(t, queue.tasks, 1)
		assert.Equal(t, shared.TypeExportCouponReport, queue.tasks[0].Type())
		assert.Contains(t, string(queue.tasks[0].Payload()), "admin-1")
	})

	t.Run("enqueue failure", func(t *testing.T) {
		r := setupRouter(t, &fakeQueue{err: errors.New("redis down")})
		w, _ := do(t, r, http.MethodPost, "/admin/reports/coupons", gin.H{"coupon_id": uuid.New()})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
