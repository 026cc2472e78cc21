package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/fhe-dapps/internal/dapp"
	"github.com/AlexZinkM/fhe-dapps/internal/model"
)

// writeJSON writes v with status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes err as model.ErrorResponse with the status of its kind
func writeError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

// badRequest writes a 400 invalid_input error
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: msg, Code: "invalid_input"})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, dapp.ErrWalletNotFound):
		return http.StatusNotFound, "wallet_not_found"
	case errors.Is(err, dapp.ErrConnectionRejected):
		return http.StatusUnauthorized, "connection_rejected"
	case errors.Is(err, dapp.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, dapp.ErrInvalidHandle):
		return http.StatusBadRequest, "invalid_handle"
	case errors.Is(err, dapp.ErrMissingRecord):
		return http.StatusNotFound, "missing_record"
	case errors.Is(err, dapp.ErrPrecondition):
		return http.StatusConflict, "precondition_failed"
	case errors.Is(err, dapp.ErrReverted):
		return http.StatusConflict, "tx_reverted"
	case errors.Is(err, dapp.ErrDecryptMalformed):
		return http.StatusBadGateway, "decrypt_malformed"
	case errors.Is(err, dapp.ErrUnsupported):
		return http.StatusBadRequest, "unsupported"
	case errors.Is(err, dapp.ErrNotFound):
		return http.StatusNotFound, "not_found"
	}
	return http.StatusInternalServerError, "internal"
}
