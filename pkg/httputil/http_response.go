package httputil

import (
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string, details error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Code:    statusCode,
		Message: message,
	}

	if details != nil {
		resp.Details = details.Error()
	}

	if err := sonic.ConfigFastest.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("writing error response failed", slog.String("error", err.Error()))
	}
}

func WriteJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		if err := sonic.ConfigDefault.NewEncoder(w).Encode(body); err != nil {
			slog.Error("writing response failed", slog.String("error", err.Error()))
		}
	}
}
