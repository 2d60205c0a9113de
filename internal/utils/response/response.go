package response

import (
	"encoding/json"
	"net/http"

	"github.com/blackgym/storefront/internal/errors"
)

type APIResponse struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []string          `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteJson(w http.ResponseWriter, statusCode int, data any) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, data any) {
	response := APIResponse{
		Success: true,
		Data:    data,
	}

	WriteJson(w, statusCode, response)
}

func Error(w http.ResponseWriter, err error) {

	var statusCode int

	var errorResponse *ErrorResponse

	if appErr, ok := errors.IsAppError(err); ok {
		statusCode = appErr.StatusCode
		errorResponse = &ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
		}

		if appErr.Detail != "" {
			errorResponse.Details = []string{appErr.Detail}
		}

	} else {

		statusCode = http.StatusInternalServerError
		errorResponse = &ErrorResponse{
			Code:    errors.ErrCodeInternal,
			Message: "An unexpected error occured",
		}

	}

	response := APIResponse{
		Success: false,
		Error:   errorResponse,
	}

	WriteJson(w, statusCode, response)
}

// FieldErrors renders a blocked transition with its field-keyed error map.
func FieldErrors(w http.ResponseWriter, err error, fields map[string]string) {
	statusCode := http.StatusBadRequest
	code := errors.ErrCodeValidation
	message := "Validation failed"

	if appErr, ok := errors.IsAppError(err); ok {
		statusCode = appErr.StatusCode
		code = appErr.Code
		message = appErr.Message
	}

	response := APIResponse{
		Success: false,
		Error: &ErrorResponse{
			Code:    code,
			Message: message,
			Fields:  fields,
		},
	}

	WriteJson(w, statusCode, response)
}
