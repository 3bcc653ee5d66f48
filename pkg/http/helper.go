package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "creatorclub/pkg/errors"

	"github.com/julienschmidt/httprouter"
)

// DecodeJSON reads a single JSON object from the request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperrors.InvalidArgument("Request body is required")
		case errors.As(err, &maxBytesErr):
			return apperrors.InvalidArgument("Request body too large")
		default:
			return apperrors.InvalidArgument("Invalid JSON format: " + err.Error())
		}
	}
	if decoder.More() {
		return apperrors.InvalidArgument("Request body must contain a single JSON object")
	}
	return nil
}

// PathParam returns a trimmed, non-empty httprouter parameter.
func PathParam(ps httprouter.Params, name string) (string, error) {
	value := strings.TrimSpace(ps.ByName(name))
	if value == "" {
		return "", apperrors.InvalidArgument(name + " is required")
	}
	return value, nil
}
