//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bagstore/storefront/internal/auth"
	"github.com/bagstore/storefront/internal/repository"
	"github.com/bagstore/storefront/internal/workflow"
)

type Workflow interface {
	Cart(ctx context.Context, userID int64) (*workflow.CartView, error)
	AddToCart(ctx context.Context, userID, productID int64, qty int) error
	CreateOrderFromCart(ctx context.Context, userID int64, in workflow.ShippingInfo) (*workflow.OrderView, error)
	CustomerOrder(ctx context.Context, userID int64, orderNumber string) (*workflow.OrderView, error)
	ReturnEligibility(ctx context.Context, userID int64, orderNumber string) (workflow.Eligibility, error)
	TransitionStatus(ctx context.Context, actor workflow.Actor, orderNumber, status string) (*workflow.OrderView, error)
	OrderActivity(ctx context.Context, actor workflow.Actor, orderNumber string) ([]workflow.ActivityView, error)
	CreateReturn(ctx context.Context, actor workflow.Actor, in workflow.CreateReturnInput) (*workflow.ReturnView, error)
	CustomerReturn(ctx context.Context, userID int64, number string) (*workflow.ReturnView, error)
	CancelReturn(ctx context.Context, actor workflow.Actor, number string) (*workflow.ReturnView, error)
	ApproveReturn(ctx context.Context, actor workflow.Actor, number string, in workflow.ApproveInput) (*workflow.ReturnView, error)
	RejectReturn(ctx context.Context, actor workflow.Actor, number, notes string) (*workflow.ReturnView, error)
	MarkReturnProcessing(ctx context.Context, actor workflow.Actor, number, notes string) (*workflow.ReturnView, error)
	CompleteReturn(ctx context.Context, actor workflow.Actor, number, notes string) (*workflow.ReturnView, error)
	ActivitySummary(ctx context.Context, actor workflow.Actor, period string) (*workflow.ActivitySummary, error)
	ActivitiesBetween(ctx context.Context, actor workflow.Actor, from, to time.Time) ([]workflow.ActivityView, error)
}

type UserRepo interface {
	Authenticate(ctx context.Context, email, password string) (*repository.User, error)
	GetByID(ctx context.Context, id int64) (*repository.User, error)
}

type Server struct {
	workflow     Workflow
	userRepo     UserRepo
	tokens       *auth.Issuer
	validate     *validator.Validate
	logger       *zap.Logger
	server       *http.Server
	AuditManager *AuditManager

	uploadPrefix string
	uploadDir    string
}

func New(wf Workflow, userRepo UserRepo, tokens *auth.Issuer, logger *zap.Logger) *Server {
	return &Server{
		workflow:     wf,
		userRepo:     userRepo,
		tokens:       tokens,
		validate:     newValidator(),
		logger:       logger,
		AuditManager: NewAuditManager(2, 5, 500*time.Millisecond, logger),
	}
}

// ServeUploads exposes locally stored return images under prefix.
func (s *Server) ServeUploads(prefix, dir string) {
	s.uploadPrefix, s.uploadDir = strings.TrimSuffix(prefix, "/"), dir
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.AuditManager.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("port", port))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("http server shutdown completed")

	s.AuditManager.Shutdown(ctx)
	s.logger.Info("server shutdown completed")
	return nil
}

// Handler builds the router. Every route except token issuance requires
// credentials; customer and admin routes additionally check the role.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.auditLogMiddleware)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	r.HandleFunc("/auth/token", s.handleIssueToken).Methods(http.MethodPost).Name("issue_token")
	if s.uploadPrefix != "" {
		files := http.StripPrefix(s.uploadPrefix, http.FileServer(http.Dir(s.uploadDir)))
		r.PathPrefix(s.uploadPrefix + "/").Handler(files).Methods(http.MethodGet).Name("uploads")
	}

	customer := r.PathPrefix("/customer").Subrouter()
	customer.Use(s.authMiddleware, requireRole(workflow.RoleCustomer))
	customer.HandleFunc("/cart", s.handleGetCart).Methods(http.MethodGet).Name("get_cart")
	customer.HandleFunc("/cart/items", s.handleAddCartItem).Methods(http.MethodPost).Name("add_cart_item")
	customer.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost).Name("create_order")
	customer.HandleFunc("/orders/{orderNumber}", s.handleGetOrder).Methods(http.MethodGet).Name("get_order")
	customer.HandleFunc("/orders/{orderNumber}/return-eligibility", s.handleReturnEligibility).Methods(http.MethodGet).Name("return_eligibility")
	customer.HandleFunc("/returns", s.handleCreateReturn).Methods(http.MethodPost).Name("create_return")
	customer.HandleFunc("/returns/{returnNumber}", s.handleGetReturn).Methods(http.MethodGet).Name("get_return")
	customer.HandleFunc("/returns/{returnNumber}/cancel", s.handleCancelReturn).Methods(http.MethodPost).Name("cancel_return")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.authMiddleware, requireRole(workflow.RoleAdmin))
	admin.HandleFunc("/orders/{orderNumber}/status", s.handleUpdateOrderStatus).Methods(http.MethodPatch).Name("update_order_status")
	admin.HandleFunc("/orders/{orderNumber}/activity-history", s.handleOrderActivity).Methods(http.MethodGet).Name("order_activity")
	admin.HandleFunc("/returns/{returnNumber}/approve", s.handleApproveReturn).Methods(http.MethodPost).Name("approve_return")
	admin.HandleFunc("/returns/{returnNumber}/reject", s.handleRejectReturn).Methods(http.MethodPost).Name("reject_return")
	admin.HandleFunc("/returns/{returnNumber}/process", s.handleProcessReturn).Methods(http.MethodPost).Name("process_return")
	admin.HandleFunc("/returns/{returnNumber}/complete", s.handleCompleteReturn).Methods(http.MethodPost).Name("complete_return")
	admin.HandleFunc("/activities/summary", s.handleActivitySummary).Methods(http.MethodGet).Name("activity_summary")
	admin.HandleFunc("/activities/export", s.handleActivityExport).Methods(http.MethodGet).Name("activity_export")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}
