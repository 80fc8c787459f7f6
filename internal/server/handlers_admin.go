package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/bagstore/storefront/internal/report"
	"github.com/bagstore/storefront/internal/workflow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type adminRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type statusResponse struct {
	Message        string              `json:"message"`
	Order          *workflow.OrderView `json:"order"`
	ActivityLogged bool                `json:"activity_logged"`
	UpdatedBy      adminRef            `json:"updated_by"`
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	orderNumber := mux.Vars(r)["orderNumber"]

	var req updateStatusRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	order, err := s.workflow.TransitionStatus(r.Context(), actor, orderNumber, req.Status)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, statusResponse{
		Message:        "Order status updated successfully",
		Order:          order,
		ActivityLogged: true,
		UpdatedBy:      adminRef{ID: actor.ID, Name: actor.Name(), Email: actor.Email},
	})
}

func (s *Server) handleOrderActivity(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	orderNumber := mux.Vars(r)["orderNumber"]

	activities, err := s.workflow.OrderActivity(r.Context(), actor, orderNumber)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"order_number": orderNumber,
		"activities":   activities,
	})
}

type approveReturnRequest struct {
	RefundMethod string `json:"refund_method" validate:"required"`
	AdminNotes   string `json:"admin_notes"`
}

type notesRequest struct {
	AdminNotes string `json:"admin_notes"`
}

func (s *Server) handleApproveReturn(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	number := mux.Vars(r)["returnNumber"]

	var req approveReturnRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	ret, err := s.workflow.ApproveReturn(r.Context(), actor, number, workflow.ApproveInput{
		RefundMethod: req.RefundMethod,
		Notes:        req.AdminNotes,
	})
	s.respondReturn(w, r, ret, err, "Return approved")
}

func (s *Server) handleRejectReturn(w http.ResponseWriter, r *http.Request) {
	s.handleReturnNotes(w, r, s.workflow.RejectReturn, "Return rejected")
}

func (s *Server) handleProcessReturn(w http.ResponseWriter, r *http.Request) {
	s.handleReturnNotes(w, r, s.workflow.MarkReturnProcessing, "Return marked as processing")
}

func (s *Server) handleCompleteReturn(w http.ResponseWriter, r *http.Request) {
	s.handleReturnNotes(w, r, s.workflow.CompleteReturn, "Return completed")
}

type notesAction func(ctx context.Context, actor workflow.Actor, number, notes string) (*workflow.ReturnView, error)

// handleReturnNotes serves the return transitions whose only input is the
// admin notes. An empty body means no notes.
func (s *Server) handleReturnNotes(w http.ResponseWriter, r *http.Request, action notesAction, message string) {
	actor, _ := actorFrom(r.Context())
	number := mux.Vars(r)["returnNumber"]

	var req notesRequest
	if r.ContentLength != 0 && !s.decodeAndValidate(w, r, &req) {
		return
	}

	ret, err := action(r.Context(), actor, number, req.AdminNotes)
	s.respondReturn(w, r, ret, err, message)
}

func (s *Server) respondReturn(w http.ResponseWriter, r *http.Request, ret *workflow.ReturnView, err error, message string) {
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"return":  ret,
	})
}

func (s *Server) handleActivitySummary(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	summary, err := s.workflow.ActivitySummary(r.Context(), actor, r.URL.Query().Get("period"))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleActivityExport(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	from, fromOK := parseExportBound(r.URL.Query().Get("date_from"), false)
	to, toOK := parseExportBound(r.URL.Query().Get("date_to"), true)
	fields := map[string]string{}
	if !fromOK {
		fields["date_from"] = "Must be a date (YYYY-MM-DD) or an RFC 3339 timestamp."
	}
	if !toOK {
		fields["date_to"] = "Must be a date (YYYY-MM-DD) or an RFC 3339 timestamp."
	}
	if len(fields) > 0 {
		respondValidation(w, fields)
		return
	}

	activities, err := s.workflow.ActivitiesBetween(r.Context(), actor, from, to)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteActivitiesXLSX(&buf, activities); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	filename := fmt.Sprintf("activities_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// parseExportBound accepts RFC 3339 or a bare date. A bare upper bound
// covers the whole day.
func parseExportBound(v string, upper bool) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), true
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	if upper {
		d = d.AddDate(0, 0, 1)
	}
	return d, true
}
