package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wheres-my-food/pkg/config"
	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/models"
)

type fakeService struct {
	err       error
	gotP      models.Principal
	gotCreate models.CreateOrderRequest
	gotFilter models.OrderFilter
	gotStatus string
	gotNotes  string
}

func (f *fakeService) CreateOrder(_ context.Context, p models.Principal, req models.CreateOrderRequest) (models.Order, error) {
	f.gotP, f.gotCreate = p, req
	if f.err != nil {
		return models.Order{}, f.err
	}
	return models.Order{ID: "o1", OrderNumber: "ORD-1", Status: models.StatusPending}, nil
}

func (f *fakeService) GetOrder(_ context.Context, p models.Principal, id string) (models.Order, error) {
	f.gotP = p
	if f.err != nil {
		return models.Order{}, f.err
	}
	return models.Order{ID: id, Status: models.StatusPending}, nil
}

func (f *fakeService) ListOrders(_ context.Context, p models.Principal, filter models.OrderFilter) (models.OrderList, error) {
	f.gotP, f.gotFilter = p, filter
	if f.err != nil {
		return models.OrderList{}, f.err
	}
	return models.OrderList{Orders: []models.Order{}, Limit: 50}, nil
}

func (f *fakeService) UpdateOrderStatus(_ context.Context, p models.Principal, id, status, notes string) (models.Order, error) {
	f.gotP, f.gotStatus, f.gotNotes = p, status, notes
	if f.err != nil {
		return models.Order{}, f.err
	}
	return models.Order{ID: id, Status: models.Status(status)}, nil
}

func (f *fakeService) GetOrderTracking(_ context.Context, p models.Principal, id string) ([]models.TrackingEntry, error) {
	f.gotP = p
	if f.err != nil {
		return nil, f.err
	}
	return []models.TrackingEntry{{OrderID: id, Status: models.StatusPending}}, nil
}

var testAuth = config.AuthConfig{JWTSecret: "test-secret", Issuer: "wmf", Audience: "orders"}

func newTestServer(t *testing.T, svc OrderService) (http.Handler, *Authenticator) {
	t.Helper()
	auth := NewAuthenticator(testAuth)
	mux := http.NewServeMux()
	NewOrderHandler(svc, logger.Nop()).Register(mux, auth.Middleware)
	return RequestLogger(mux, logger.Nop()), auth
}

func bearer(t *testing.T, auth *Authenticator, p models.Principal) string {
	t.Helper()
	tok, err := auth.Issue(p, testAuth.Issuer, testAuth.Audience, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + tok
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	customer := models.Principal{ID: "c1", Role: models.RoleCustomer}

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		noAuth         bool
		expectedStatus int
		expectedCode   string
	}{
		{name: "created", body: `{"items":[{"menu_item_id":"x","quantity":2}]}`, expectedStatus: http.StatusCreated},
		{name: "invalid json", body: `{"items":`, expectedStatus: http.StatusBadRequest, expectedCode: codeInvalidRequestBody},
		{name: "missing token", body: `{}`, noAuth: true, expectedStatus: http.StatusUnauthorized, expectedCode: codeUnauthenticated},
		{name: "validation", body: `{}`, serviceErr: fmt.Errorf("%w: items required", models.ErrInvalidRequest), expectedStatus: http.StatusBadRequest, expectedCode: codeInvalidRequest},
		{name: "unavailable", body: `{}`, serviceErr: models.ErrItemUnavailable, expectedStatus: http.StatusBadRequest, expectedCode: codeItemUnavailable},
		{name: "unknown item", body: `{}`, serviceErr: fmt.Errorf("menu item x: %w", models.ErrItemNotFound), expectedStatus: http.StatusNotFound, expectedCode: codeNotFound},
		{name: "insufficient stock", body: `{}`, serviceErr: models.ErrInsufficientStock, expectedStatus: http.StatusConflict, expectedCode: codeInsufficientStock},
		{name: "duplicate", body: `{}`, serviceErr: models.ErrDuplicateRequest, expectedStatus: http.StatusConflict, expectedCode: codeDuplicateRequest},
		{name: "persistence", body: `{}`, serviceErr: fmt.Errorf("create order: %w: %w", models.ErrPersistence, errors.New("conn reset")), expectedStatus: http.StatusInternalServerError, expectedCode: codeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeService{err: tt.serviceErr}
			srv, auth := newTestServer(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tt.body))
			req.Header.Set(idempotencyHeader, "key-1")
			if !tt.noAuth {
				req.Header.Set("Authorization", bearer(t, auth, customer))
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if rec.Header().Get(requestIDHeader) == "" {
				t.Fatalf("expected request id header")
			}
			if tt.expectedCode != "" {
				var body errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if body.Code != tt.expectedCode {
					t.Fatalf("expected code %q, got %q", tt.expectedCode, body.Code)
				}
				if tt.expectedStatus == http.StatusInternalServerError && strings.Contains(body.Error, "conn reset") {
					t.Fatalf("internal error leaked cause: %q", body.Error)
				}
				return
			}
			if svc.gotP != customer {
				t.Fatalf("expected principal %+v, got %+v", customer, svc.gotP)
			}
			if svc.gotCreate.IdempotencyKey != "key-1" || len(svc.gotCreate.Items) != 1 {
				t.Fatalf("unexpected request %+v", svc.gotCreate)
			}
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Parallel()

	owner := models.Principal{ID: "u1", Role: models.RoleRestaurantOwner, VendorID: "v1"}

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedCode   string
	}{
		{name: "updated", body: `{"status":"ready","notes":"at the counter"}`, expectedStatus: http.StatusOK},
		{name: "missing status", body: `{}`, expectedStatus: http.StatusBadRequest, expectedCode: codeInvalidStatus},
		{name: "unknown status", body: `{"status":"teleported"}`, serviceErr: models.ErrInvalidStatus, expectedStatus: http.StatusBadRequest, expectedCode: codeInvalidStatus},
		{name: "forbidden", body: `{"status":"ready"}`, serviceErr: models.ErrForbidden, expectedStatus: http.StatusForbidden, expectedCode: codeForbidden},
		{name: "not found", body: `{"status":"ready"}`, serviceErr: models.ErrOrderNotFound, expectedStatus: http.StatusNotFound, expectedCode: codeOrderNotFound},
		{name: "invalid transition", body: `{"status":"ready"}`, serviceErr: models.ErrInvalidTransition, expectedStatus: http.StatusConflict, expectedCode: codeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeService{err: tt.serviceErr}
			srv, auth := newTestServer(t, svc)

			req := httptest.NewRequest(http.MethodPut, "/orders/o42/status", strings.NewReader(tt.body))
			req.Header.Set("Authorization", bearer(t, auth, owner))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.expectedCode) {
				t.Fatalf("expected body to contain %q, got %s", tt.expectedCode, rec.Body.String())
			}
			if tt.expectedStatus == http.StatusOK && (svc.gotStatus != "ready" || svc.gotNotes != "at the counter") {
				t.Fatalf("unexpected service call %q %q", svc.gotStatus, svc.gotNotes)
			}
		})
	}
}

func TestListOrders_QueryParams(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	srv, auth := newTestServer(t, svc)
	admin := models.Principal{ID: "a1", Role: models.RoleAdmin}

	req := httptest.NewRequest(http.MethodGet, "/orders?vendor_id=v1&status=ready&limit=10&offset=20", nil)
	req.Header.Set("Authorization", bearer(t, auth, admin))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := models.OrderFilter{VendorID: "v1", Status: models.StatusReady, Limit: 10, Offset: 20}
	if svc.gotFilter != want {
		t.Fatalf("expected filter %+v, got %+v", want, svc.gotFilter)
	}

	req = httptest.NewRequest(http.MethodGet, "/orders?limit=ten", nil)
	req.Header.Set("Authorization", bearer(t, auth, admin))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestGetOrderTracking(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	srv, auth := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/orders/o7/tracking", nil)
	req.Header.Set("Authorization", bearer(t, auth, models.Principal{ID: "c1", Role: models.RoleCustomer}))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp trackingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OrderID != "o7" || len(resp.History) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAuthenticator(t *testing.T) {
	t.Parallel()

	auth := NewAuthenticator(testAuth)
	p := models.Principal{ID: "u1", Role: models.RoleRestaurantOwner, VendorID: "v1"}

	tok, _ := auth.Issue(p, testAuth.Issuer, testAuth.Audience, time.Hour)
	got, err := auth.Parse(tok)
	if err != nil || got != p {
		t.Fatalf("expected %+v, got %+v (%v)", p, got, err)
	}

	tests := []struct {
		name string
		tok  func() string
	}{
		{"wrong audience", func() string { s, _ := auth.Issue(p, testAuth.Issuer, "other", time.Hour); return s }},
		{"wrong issuer", func() string { s, _ := auth.Issue(p, "other", testAuth.Audience, time.Hour); return s }},
		{"expired", func() string { s, _ := auth.Issue(p, testAuth.Issuer, testAuth.Audience, -time.Hour); return s }},
		{"other secret", func() string {
			other := NewAuthenticator(config.AuthConfig{JWTSecret: "nope"})
			s, _ := other.Issue(p, testAuth.Issuer, testAuth.Audience, time.Hour)
			return s
		}},
		{"missing subject", func() string {
			s, _ := auth.Issue(models.Principal{Role: models.RoleAdmin}, testAuth.Issuer, testAuth.Audience, time.Hour)
			return s
		}},
		{"garbage", func() string { return "not.a.jwt" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := auth.Parse(tt.tok()); err == nil {
				t.Fatalf("expected token to be rejected")
			}
		})
	}
}

func TestLimitConcurrency(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusOK)
	})
	h := LimitConcurrency(slow, 1)

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		done <- rec.Code
	}()
	<-entered

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while at capacity, got %d", rec.Code)
	}

	close(release)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", code)
	}
}
