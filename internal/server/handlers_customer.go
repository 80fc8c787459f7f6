package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bagstore/storefront/internal/auth"
	"github.com/bagstore/storefront/internal/repository"
	"github.com/bagstore/storefront/internal/workflow"
)

const maxMultipartMemory = 8 << 20

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="storefront"`)
		respondError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	user, err := s.userRepo.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.logger.Error("failed to authenticate", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to authenticate")
		return
	}

	token, expires, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		if errors.Is(err, auth.ErrNoSecret) {
			respondError(w, http.StatusServiceUnavailable, "Token issuance is not configured")
			return
		}
		s.logger.Error("failed to issue token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expires, Role: user.Role})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	cart, err := s.workflow.Cart(r.Context(), actor.ID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,max=100"`
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	var req addCartItemRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.workflow.AddToCart(r.Context(), actor.ID, req.ProductID, req.Quantity); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	cart, err := s.workflow.Cart(r.Context(), actor.ID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

type createOrderRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required,max=500"`
	ShippingCity    string `json:"shipping_city" validate:"required,max=100"`
	ShippingPhone   string `json:"shipping_phone" validate:"required,max=20"`
	Notes           string `json:"notes" validate:"max=1000"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	var req createOrderRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	order, err := s.workflow.CreateOrderFromCart(r.Context(), actor.ID, workflow.ShippingInfo{
		Address: req.ShippingAddress,
		City:    req.ShippingCity,
		Phone:   req.ShippingPhone,
		Notes:   req.Notes,
	})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Order created successfully",
		"order":   order,
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	orderNumber := mux.Vars(r)["orderNumber"]

	order, err := s.workflow.CustomerOrder(r.Context(), actor.ID, orderNumber)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleReturnEligibility(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	orderNumber := mux.Vars(r)["orderNumber"]

	eligibility, err := s.workflow.ReturnEligibility(r.Context(), actor.ID, orderNumber)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, eligibility)
}

type returnItemRequest struct {
	OrderItemID int64  `json:"order_item_id" validate:"required"`
	Quantity    int    `json:"quantity"`
	Condition   string `json:"condition" validate:"max=255"`
}

type createReturnRequest struct {
	OrderNumber string              `json:"order_number" validate:"required"`
	Reason      string              `json:"reason"`
	Description string              `json:"description"`
	Items       []returnItemRequest `json:"items" validate:"dive"`
}

// handleCreateReturn accepts a JSON body or a multipart form whose "data"
// part holds the JSON and whose "images" parts hold the evidence photos.
func (s *Server) handleCreateReturn(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	var (
		req    createReturnRequest
		images []workflow.ImageUpload
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid multipart body")
			return
		}
		defer r.MultipartForm.RemoveAll()

		if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid data part")
			return
		}
		if !s.validateRequest(w, &req) {
			return
		}

		var closeAll func()
		var err error
		images, closeAll, err = openImages(r.MultipartForm.File["images"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Failed to read uploaded images")
			return
		}
		defer closeAll()
	} else if !s.decodeAndValidate(w, r, &req) {
		return
	}

	in := workflow.CreateReturnInput{
		OrderNumber: req.OrderNumber,
		Reason:      req.Reason,
		Description: req.Description,
		Images:      images,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, workflow.ReturnItemInput{
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
			Condition:   item.Condition,
		})
	}

	ret, err := s.workflow.CreateReturn(r.Context(), actor, in)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Return request submitted successfully",
		"return":  ret,
	})
}

func openImages(headers []*multipart.FileHeader) ([]workflow.ImageUpload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	images := make([]workflow.ImageUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		contentType, err := sniffContentType(f)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		images = append(images, workflow.ImageUpload{
			Filename:    fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Body:        f,
		})
	}
	return images, closeAll, nil
}

// sniffContentType detects the type from the file body and rewinds it. The
// Content-Type sent by the client is ignored.
func sniffContentType(f multipart.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

func (s *Server) handleGetReturn(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	number := mux.Vars(r)["returnNumber"]

	ret, err := s.workflow.CustomerReturn(r.Context(), actor.ID, number)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ret)
}

func (s *Server) handleCancelReturn(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	number := mux.Vars(r)["returnNumber"]

	ret, err := s.workflow.CancelReturn(r.Context(), actor, number)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Return request cancelled",
		"return":  ret,
	})
}
