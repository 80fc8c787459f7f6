package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/bagstore/storefront/internal/apperr"
	"github.com/bagstore/storefront/internal/auth"
	"github.com/bagstore/storefront/internal/repository"
	mock_server "github.com/bagstore/storefront/internal/server/mocks"
	"github.com/bagstore/storefront/internal/workflow"
)

var (
	adminUser    = &repository.User{ID: 1, FirstName: "Ada", LastName: "Admin", Email: "admin@example.com", Role: "admin"}
	customerUser = &repository.User{ID: 2, FirstName: "Alice", LastName: "Smith", Email: "alice@example.com", Role: "customer"}
	adminActor   = workflow.Actor{ID: 1, FirstName: "Ada", LastName: "Admin", Email: "admin@example.com", Role: workflow.RoleAdmin}
	customer     = workflow.Actor{ID: 2, FirstName: "Alice", LastName: "Smith", Email: "alice@example.com", Role: workflow.RoleCustomer}
)

type testServer struct {
	*Server
	workflow *mock_server.MockWorkflow
	users    *mock_server.MockUserRepo
}

func newTestServer(t *testing.T) testServer {
	ctrl := gomock.NewController(t)
	wf := mock_server.NewMockWorkflow(ctrl)
	users := mock_server.NewMockUserRepo(ctrl)
	s := New(wf, users, auth.NewIssuer("test-secret", time.Hour), zaptest.NewLogger(t))
	return testServer{Server: s, workflow: wf, users: users}
}

func asActor(req *http.Request, a workflow.Actor) *http.Request {
	return req.WithContext(withActor(req.Context(), a))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHandleIssueToken(t *testing.T) {
	tests := []struct {
		name           string
		basicAuth      bool
		setupMocks     func(s testServer)
		expectedStatus int
	}{
		{
			name:      "valid credentials",
			basicAuth: true,
			setupMocks: func(s testServer) {
				s.users.EXPECT().Authenticate(gomock.Any(), "alice@example.com", "secret123").Return(customerUser, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing credentials",
			setupMocks:     func(testServer) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:      "wrong password",
			basicAuth: true,
			setupMocks: func(s testServer) {
				s.users.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, repository.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:      "repository error",
			basicAuth: true,
			setupMocks: func(s testServer) {
				s.users.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			tc.setupMocks(s)

			req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
			if tc.basicAuth {
				req.SetBasicAuth("alice@example.com", "secret123")
			}
			rr := httptest.NewRecorder()

			s.handleIssueToken(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedStatus == http.StatusOK {
				body := decodeBody(t, rr)
				assert.Equal(t, "Bearer", body["token_type"])
				assert.Equal(t, "customer", body["role"])

				id, err := s.tokens.Parse(body["access_token"].(string))
				require.NoError(t, err)
				assert.Equal(t, int64(2), id.UserID)
			}
		})
	}
}

func TestRouterAuthorization(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	customerToken, _, err := s.tokens.Issue(customerUser.ID, customerUser.Role)
	require.NoError(t, err)

	t.Run("no credentials", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/customer/cart", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"Unauthenticated"}`, rr.Body.String())
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/customer/cart", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("customer token on admin route", func(t *testing.T) {
		s.users.EXPECT().GetByID(gomock.Any(), int64(2)).Return(customerUser, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin/activities/summary", nil)
		req.Header.Set("Authorization", "Bearer "+customerToken)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("customer token on customer route", func(t *testing.T) {
		s.users.EXPECT().GetByID(gomock.Any(), int64(2)).Return(customerUser, nil)
		s.workflow.EXPECT().Cart(gomock.Any(), int64(2)).Return(&workflow.CartView{Total: "0.00"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/customer/cart", nil)
		req.Header.Set("Authorization", "Bearer "+customerToken)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"items":null,"total":"0.00"}`, rr.Body.String())
	})

	t.Run("token of deleted user", func(t *testing.T) {
		s.users.EXPECT().GetByID(gomock.Any(), int64(2)).Return(nil, repository.ErrObjectNotFound)

		req := httptest.NewRequest(http.MethodGet, "/customer/cart", nil)
		req.Header.Set("Authorization", "Bearer "+customerToken)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("basic auth admin", func(t *testing.T) {
		s.users.EXPECT().Authenticate(gomock.Any(), "admin@example.com", "secret123").Return(adminUser, nil)
		s.workflow.EXPECT().ActivitySummary(gomock.Any(), gomock.Any(), "week").
			DoAndReturn(func(_ context.Context, a workflow.Actor, _ string) (*workflow.ActivitySummary, error) {
				assert.Equal(t, int64(1), a.ID)
				assert.Equal(t, workflow.RoleAdmin, a.Role)
				assert.Equal(t, "203.0.113.9", a.IP)
				return &workflow.ActivitySummary{Period: "week"}, nil
			})

		req := httptest.NewRequest(http.MethodGet, "/admin/activities/summary?period=week", nil)
		req.SetBasicAuth("admin@example.com", "secret123")
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandleUpdateOrderStatus(t *testing.T) {
	order := &workflow.OrderView{OrderNumber: "ORD-20250610-0001", Status: workflow.OrderShipping}

	tests := []struct {
		name           string
		requestBody    string
		setupMocks     func(s testServer)
		expectedStatus int
		check          func(t *testing.T, body map[string]interface{})
	}{
		{
			name:        "successful update",
			requestBody: `{"status":"shipping"}`,
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().TransitionStatus(gomock.Any(), adminActor, "ORD-20250610-0001", "shipping").Return(order, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, true, body["activity_logged"])
				assert.Equal(t, map[string]interface{}{"id": float64(1), "name": "Ada Admin", "email": "admin@example.com"}, body["updated_by"])
				assert.Equal(t, "shipping", body["order"].(map[string]interface{})["status"])
			},
		},
		{
			name:           "invalid body",
			requestBody:    `{"status":`,
			setupMocks:     func(testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing status",
			requestBody:    `{}`,
			setupMocks:     func(testServer) {},
			expectedStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, map[string]interface{}{"status": "This field is required."}, body["fields"])
			},
		},
		{
			name:        "forbidden transition",
			requestBody: `{"status":"pending"}`,
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().TransitionStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, apperr.ConflictErr("Cannot change status from delivered to pending.").WithCode("invalid_transition"))
			},
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Cannot change status from delivered to pending.", body["error"])
				assert.Equal(t, "invalid_transition", body["code"])
			},
		},
		{
			name:        "order locked",
			requestBody: `{"status":"delivered"}`,
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().TransitionStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, workflow.ErrOrderBusy)
			},
			expectedStatus: http.StatusConflict,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, true, body["retryable"])
			},
		},
		{
			name:        "order not found",
			requestBody: `{"status":"delivered"}`,
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().TransitionStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, workflow.ErrOrderNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "internal error hides cause",
			requestBody: `{"status":"delivered"}`,
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().TransitionStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, apperr.Wrap(errors.New("pq: relation does not exist")))
			},
			expectedStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "An unexpected error occurred.", body["error"])
				assert.NotContains(t, body, "code")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			tc.setupMocks(s)

			req := httptest.NewRequest(http.MethodPatch, "/admin/orders/ORD-20250610-0001/status", bytes.NewBufferString(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")
			req = mux.SetURLVars(asActor(req, adminActor), map[string]string{"orderNumber": "ORD-20250610-0001"})
			rr := httptest.NewRecorder()

			s.handleUpdateOrderStatus(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.check != nil {
				tc.check(t, decodeBody(t, rr))
			}
		})
	}
}

func TestHandleAddCartItem(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		setupMocks     func(s testServer)
		expectedStatus int
		expectedFields map[string]interface{}
	}{
		{
			name:        "item added",
			requestBody: `{"product_id":10,"quantity":2}`,
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().AddToCart(gomock.Any(), int64(2), int64(10), 2).Return(nil)
				s.workflow.EXPECT().Cart(gomock.Any(), int64(2)).Return(&workflow.CartView{Total: "240.00"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "quantity required",
			requestBody:    `{"product_id":10}`,
			setupMocks:     func(testServer) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedFields: map[string]interface{}{"quantity": "This field is required."},
		},
		{
			name:           "negative quantity",
			requestBody:    `{"product_id":10,"quantity":-1}`,
			setupMocks:     func(testServer) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedFields: map[string]interface{}{"quantity": "Must be greater than 0."},
		},
		{
			name:        "product unavailable",
			requestBody: `{"product_id":12,"quantity":1}`,
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().AddToCart(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(apperr.InvalidErr("Product is not available.", map[string]string{"product_id": "Product is not available."}))
			},
			expectedStatus: http.StatusBadRequest,
			expectedFields: map[string]interface{}{"product_id": "Product is not available."},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			tc.setupMocks(s)

			req := httptest.NewRequest(http.MethodPost, "/customer/cart/items", bytes.NewBufferString(tc.requestBody))
			req = asActor(req, customer)
			rr := httptest.NewRecorder()

			s.handleAddCartItem(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedFields != nil {
				assert.Equal(t, tc.expectedFields, decodeBody(t, rr)["fields"])
			}
		})
	}
}

func TestHandleCreateOrder(t *testing.T) {
	s := newTestServer(t)
	s.workflow.EXPECT().CreateOrderFromCart(gomock.Any(), int64(2), workflow.ShippingInfo{
		Address: "1 Main St", City: "Casablanca", Phone: "0600000000",
	}).Return(&workflow.OrderView{OrderNumber: "ORD-20250610-0001", Status: workflow.OrderPending}, nil)

	body := `{"shipping_address":"1 Main St","shipping_city":"Casablanca","shipping_phone":"0600000000"}`
	req := asActor(httptest.NewRequest(http.MethodPost, "/customer/orders", bytes.NewBufferString(body)), customer)
	rr := httptest.NewRecorder()

	s.handleCreateOrder(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	out := decodeBody(t, rr)
	assert.Equal(t, "ORD-20250610-0001", out["order"].(map[string]interface{})["order_number"])
}

func TestHandleReturnEligibility(t *testing.T) {
	s := newTestServer(t)
	deadline := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	days := 5
	s.workflow.EXPECT().ReturnEligibility(gomock.Any(), int64(2), "ORD-20250601-0001").
		Return(workflow.Eligibility{Eligible: true, Deadline: &deadline, DaysRemaining: &days}, nil)

	req := httptest.NewRequest(http.MethodGet, "/customer/orders/ORD-20250601-0001/return-eligibility", nil)
	req = mux.SetURLVars(asActor(req, customer), map[string]string{"orderNumber": "ORD-20250601-0001"})
	rr := httptest.NewRecorder()

	s.handleReturnEligibility(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"eligible":true,"return_deadline":"2025-06-15T09:30:00Z","days_remaining":5}`, rr.Body.String())
}

func TestHandleCreateReturn(t *testing.T) {
	created := &workflow.ReturnView{ReturnNumber: "RET-20250610-0001", Status: workflow.ReturnPending}

	t.Run("json body", func(t *testing.T) {
		s := newTestServer(t)
		s.workflow.EXPECT().CreateReturn(gomock.Any(), customer, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ workflow.Actor, in workflow.CreateReturnInput) (*workflow.ReturnView, error) {
				assert.Equal(t, "ORD-20250601-0001", in.OrderNumber)
				assert.Equal(t, "defective", in.Reason)
				assert.Equal(t, []workflow.ReturnItemInput{{OrderItemID: 7, Quantity: 1, Condition: "damaged"}}, in.Items)
				assert.Empty(t, in.Images)
				return created, nil
			})

		body := `{"order_number":"ORD-20250601-0001","reason":"defective","description":"The zipper broke on day one.",
			"items":[{"order_item_id":7,"quantity":1,"condition":"damaged"}]}`
		req := asActor(httptest.NewRequest(http.MethodPost, "/customer/returns", bytes.NewBufferString(body)), customer)
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		s.handleCreateReturn(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "RET-20250610-0001", decodeBody(t, rr)["return"].(map[string]interface{})["return_number"])
	})

	pngBody := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	multipartRequest := func(t *testing.T, filename, contentType string, body []byte) *http.Request {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("data", `{"order_number":"ORD-20250601-0001","reason":"defective","items":[{"order_item_id":7,"quantity":1}]}`))
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(body)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := asActor(httptest.NewRequest(http.MethodPost, "/customer/returns", &buf), customer)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	t.Run("multipart with images", func(t *testing.T) {
		s := newTestServer(t)
		s.workflow.EXPECT().CreateReturn(gomock.Any(), customer, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ workflow.Actor, in workflow.CreateReturnInput) (*workflow.ReturnView, error) {
				require.Len(t, in.Images, 1)
				assert.Equal(t, "zipper.png", in.Images[0].Filename)
				assert.Equal(t, "image/png", in.Images[0].ContentType)
				assert.Equal(t, int64(len(pngBody)), in.Images[0].Size)
				body, err := io.ReadAll(in.Images[0].Body)
				require.NoError(t, err)
				assert.Equal(t, pngBody, body)
				return created, nil
			})
		rr := httptest.NewRecorder()

		s.handleCreateReturn(rr, multipartRequest(t, "zipper.png", "application/octet-stream", pngBody))

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("type sniffed from body", func(t *testing.T) {
		s := newTestServer(t)
		s.workflow.EXPECT().CreateReturn(gomock.Any(), customer, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ workflow.Actor, in workflow.CreateReturnInput) (*workflow.ReturnView, error) {
				require.Len(t, in.Images, 1)
				assert.Equal(t, "text/plain; charset=utf-8", in.Images[0].ContentType)
				return nil, apperr.InvalidErr("The given data was invalid.", map[string]string{"images.0": "must be a jpeg or png image"})
			})
		rr := httptest.NewRecorder()

		s.handleCreateReturn(rr, multipartRequest(t, "notes.png", "image/png", []byte("definitely not an image")))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing order number", func(t *testing.T) {
		s := newTestServer(t)
		req := asActor(httptest.NewRequest(http.MethodPost, "/customer/returns", bytes.NewBufferString(`{"reason":"defective"}`)), customer)
		rr := httptest.NewRecorder()

		s.handleCreateReturn(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, map[string]interface{}{"order_number": "This field is required."}, decodeBody(t, rr)["fields"])
	})

	t.Run("not eligible", func(t *testing.T) {
		s := newTestServer(t)
		s.workflow.EXPECT().CreateReturn(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, apperr.InvalidErr("The return period for this order has expired.", nil).WithCode("return_period_expired"))

		req := asActor(httptest.NewRequest(http.MethodPost, "/customer/returns",
			bytes.NewBufferString(`{"order_number":"ORD-20250501-0001"}`)), customer)
		rr := httptest.NewRecorder()

		s.handleCreateReturn(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "return_period_expired", decodeBody(t, rr)["code"])
	})
}

func TestHandleReturnTransitions(t *testing.T) {
	ret := &workflow.ReturnView{ReturnNumber: "RET-20250610-0001"}

	tests := []struct {
		name       string
		path       string
		body       string
		handler    func(s testServer) http.HandlerFunc
		setupMocks func(s testServer)
		expected   int
	}{
		{
			name:    "approve",
			path:    "approve",
			body:    `{"refund_method":"store_credit","admin_notes":"ok"}`,
			handler: func(s testServer) http.HandlerFunc { return s.handleApproveReturn },
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().ApproveReturn(gomock.Any(), adminActor, "RET-20250610-0001",
					workflow.ApproveInput{RefundMethod: "store_credit", Notes: "ok"}).Return(ret, nil)
			},
			expected: http.StatusOK,
		},
		{
			name:       "approve without method",
			path:       "approve",
			body:       `{}`,
			handler:    func(s testServer) http.HandlerFunc { return s.handleApproveReturn },
			setupMocks: func(testServer) {},
			expected:   http.StatusUnprocessableEntity,
		},
		{
			name:    "reject",
			path:    "reject",
			body:    `{"admin_notes":"Outside policy"}`,
			handler: func(s testServer) http.HandlerFunc { return s.handleRejectReturn },
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().RejectReturn(gomock.Any(), adminActor, "RET-20250610-0001", "Outside policy").Return(ret, nil)
			},
			expected: http.StatusOK,
		},
		{
			name:    "process without body",
			path:    "process",
			handler: func(s testServer) http.HandlerFunc { return s.handleProcessReturn },
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().MarkReturnProcessing(gomock.Any(), adminActor, "RET-20250610-0001", "").Return(ret, nil)
			},
			expected: http.StatusOK,
		},
		{
			name:    "complete from wrong state",
			path:    "complete",
			handler: func(s testServer) http.HandlerFunc { return s.handleCompleteReturn },
			setupMocks: func(s testServer) {
				s.workflow.EXPECT().CompleteReturn(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, apperr.ConflictErr("Only approved or processing returns can be completed."))
			},
			expected: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			tc.setupMocks(s)

			var req *http.Request
			if tc.body == "" {
				req = httptest.NewRequest(http.MethodPost, "/admin/returns/RET-20250610-0001/"+tc.path, nil)
			} else {
				req = httptest.NewRequest(http.MethodPost, "/admin/returns/RET-20250610-0001/"+tc.path, bytes.NewBufferString(tc.body))
			}
			req = mux.SetURLVars(asActor(req, adminActor), map[string]string{"returnNumber": "RET-20250610-0001"})
			rr := httptest.NewRecorder()

			tc.handler(s)(rr, req)

			assert.Equal(t, tc.expected, rr.Code)
		})
	}
}

func TestHandleActivityExport(t *testing.T) {
	t.Run("xlsx download", func(t *testing.T) {
		s := newTestServer(t)
		from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
		s.workflow.EXPECT().ActivitiesBetween(gomock.Any(), adminActor, from, to).
			Return([]workflow.ActivityView{{ID: 1, Action: workflow.ActionStatusChanged, EntityType: "order", EntityID: 100}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin/activities/export?date_from=2025-06-01&date_to=2025-06-10", nil)
		req = asActor(req, adminActor)
		rr := httptest.NewRecorder()

		s.handleActivityExport(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Header().Get("Content-Disposition"), "activities_20250601_20250611.xlsx")
		assert.Equal(t, "PK", rr.Body.String()[:2])
	})

	t.Run("bad dates", func(t *testing.T) {
		s := newTestServer(t)
		req := asActor(httptest.NewRequest(http.MethodGet, "/admin/activities/export?date_from=yesterday", nil), adminActor)
		rr := httptest.NewRecorder()

		s.handleActivityExport(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		fields := decodeBody(t, rr)["fields"].(map[string]interface{})
		assert.Contains(t, fields, "date_from")
		assert.Contains(t, fields, "date_to")
	})

	t.Run("reversed range", func(t *testing.T) {
		s := newTestServer(t)
		s.workflow.EXPECT().ActivitiesBetween(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, apperr.InvalidErr("The end date must be after the start date.", map[string]string{"date_to": "Must be after date_from."}))

		req := asActor(httptest.NewRequest(http.MethodGet, "/admin/activities/export?date_from=2025-06-10&date_to=2025-06-01", nil), adminActor)
		rr := httptest.NewRecorder()

		s.handleActivityExport(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
