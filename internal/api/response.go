package api

import (
	"encoding/json"
	"net/http"

	"github.com/RedHatInsights/tenant_provisioner/internal/apperrors"
	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/RedHatInsights/tenant_provisioner/internal/provisioning"
)

// genericFailure is reported for every error that is not a business outcome
const genericFailure = "the operation could not be completed, please try again later"

type envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func sendJSON(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.GetLogger(r.Context()).Errorf("Error writing response %v", err)
	}
}

func sendData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	sendJSON(w, r, status, envelope{Data: data})
}

func sendError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	sendJSON(w, r, status, envelope{Error: msg})
}

// sendFailure maps err to a status by its kind. Anything that is not the
// caller's fault is logged and hidden behind the generic message.
func sendFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := failureStatus(err)
	if status == http.StatusInternalServerError {
		logger.GetLogger(r.Context()).Errorf("Request failed %v", err)
		sendError(w, r, status, genericFailure)
		return
	}
	logger.GetLogger(r.Context()).Infof("Request rejected %v", err)
	sendError(w, r, status, apperrors.Cause(err))
}

func failureStatus(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.Validation:
		return http.StatusBadRequest
	case apperrors.NotFound:
		return http.StatusNotFound
	case apperrors.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func statusCode(s provisioning.Status) int {
	switch s {
	case provisioning.StatusOK:
		return http.StatusOK
	case provisioning.StatusInvalid:
		return http.StatusBadRequest
	case provisioning.StatusNotFound:
		return http.StatusNotFound
	case provisioning.StatusConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apperrors.ValidationError("api.decode", "request body is empty")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		logger.GetLogger(r.Context()).Infof("Error decoding request body %v", err)
		return apperrors.ValidationError("api.decode", "unable to parse request body")
	}
	return nil
}
