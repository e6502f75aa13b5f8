// Package httputil holds the JSON response helpers shared by the REST handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/bankmirror/internal/clients/comdirect"
	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
)

// WriteJSON encodes data with the given status.
func WriteJSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, log zerolog.Logger, status int, message string) {
	WriteJSON(w, log, status, map[string]string{"error": message})
}

// WriteServiceError maps service and upstream errors onto HTTP responses:
// upstream and decode failures are 502, validation 422, missing records 404.
func WriteServiceError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var (
		upErr     *comdirect.UpstreamError
		decodeErr *domain.DecodeError
		valErr    *domain.ValidationError
	)

	switch {
	case errors.As(err, &upErr):
		WriteJSON(w, log, http.StatusBadGateway, map[string]interface{}{
			"error":           upErr.Error(),
			"upstream_status": upErr.StatusCode,
			"upstream_body":   upErr.Body,
		})
	case errors.As(err, &decodeErr):
		WriteError(w, log, http.StatusBadGateway, decodeErr.Error())
	case errors.As(err, &valErr):
		WriteError(w, log, http.StatusUnprocessableEntity, valErr.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, log, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Msg("Request failed")
		WriteError(w, log, http.StatusInternalServerError, err.Error())
	}
}

// ForwardedHeaders copies the upstream authentication headers from r.
func ForwardedHeaders(r *http.Request) domain.Headers {
	headers := domain.Headers{}
	for _, name := range domain.ForwardedHeaderNames {
		if v := r.Header.Get(name); v != "" {
			headers[name] = v
		}
	}
	return headers
}

// QueryBool reads a boolean query parameter; absent or invalid is false.
func QueryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

// QueryString returns a pointer to a non-empty query parameter.
func QueryString(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	return &v
}

// QueryInt returns a pointer to an integer query parameter.
func QueryInt(r *http.Request, key string) (*int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Message: "must be an integer"}
	}
	return &n, nil
}
