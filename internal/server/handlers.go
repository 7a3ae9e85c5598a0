package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tournevent/courier/internal/dispatch"
	"github.com/tournevent/courier/internal/reconcile"
	"github.com/tournevent/courier/pkg/shipper"
	"go.uber.org/zap"
)

const bodyLimit = 1 << 20

type assignRequest struct {
	ServiceID     string `json:"serviceId"`
	ConsignmentID string `json:"consignmentId"`
}

type dispatchRequest struct {
	ServiceID string `json:"serviceId"`
	shipper.DeliveryDetails
}

type courierResponse struct {
	ServiceID      string `json:"serviceId"`
	ConsignmentID  string `json:"consignmentId"`
	TrackingNumber string `json:"trackingNumber"`
	Status         string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toCourierResponse(info *shipper.OrderCourierInfo) courierResponse {
	return courierResponse{
		ServiceID:      string(info.ServiceID),
		ConsignmentID:  info.ConsignmentID,
		TrackingNumber: info.TrackingNumber,
		Status:         info.Status,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	carrier, err := shipper.ParseCarrier(req.ServiceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	info, err := s.dispatcher.Assign(r.Context(), chi.URLParam(r, "orderID"), carrier, req.ConsignmentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourierResponse(info))
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	carrier, err := shipper.ParseCarrier(req.ServiceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	info, err := s.dispatcher.Dispatch(r.Context(), chi.URLParam(r, "orderID"), carrier, req.DeliveryDetails)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCourierResponse(info))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	info, err := s.dispatcher.RefreshStatus(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourierResponse(info))
}

// handleSync runs one pass to completion even if the caller goes away.
// The pass can outlast the server's write timeout, so it is lifted here.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	res, err := s.reconciler.Trigger(context.WithoutCancel(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// fail maps err onto an HTTP status and writes it as a JSON error body.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	log := s.logger.Ctx(r.Context()).Warn
	if status >= http.StatusInternalServerError {
		log = s.logger.Ctx(r.Context()).Error
	}
	log("Request failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.String("error_kind", shipper.Kind(err)),
		zap.Error(err),
	)
	writeError(w, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shipper.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shipper.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, dispatch.ErrDispatchInProgress), errors.Is(err, dispatch.ErrBindingChanged),
		errors.Is(err, reconcile.ErrPassRunning):
		return http.StatusConflict
	case errors.Is(err, shipper.ErrConfiguration),
		errors.Is(err, shipper.ErrCarrierDisabled),
		errors.Is(err, shipper.ErrCarrierNotFound),
		errors.Is(err, shipper.ErrAreaResolution),
		errors.Is(err, shipper.ErrNoCourierBinding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shipper.ErrTransient):
		return http.StatusGatewayTimeout
	case errors.Is(err, shipper.ErrProvider), errors.Is(err, shipper.ErrVariationsExhausted):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON[T any](w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid json: trailing data")
		return false
	}
	return true
}
