package utils

import (
	"fmt"
	"net/http"
)

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func NewConnectError(providerType string) *APIError {
	return &APIError{
		Code:    1001,
		Message: fmt.Sprintf("Failed to connect to %s. Check credentials.", providerType),
	}
}

func NewConnectionNotFoundError(connectionID string) *APIError {
	return &APIError{
		Code:    1002,
		Message: fmt.Sprintf("Cloud connection %s not found", connectionID),
	}
}

func NewNodeActionError(action, nodeID string) *APIError {
	return &APIError{
		Code:    2001,
		Message: fmt.Sprintf("Failed to %s node %s", action, nodeID),
	}
}

func NewNodeCreateError(name string) *APIError {
	return &APIError{
		Code:    2002,
		Message: fmt.Sprintf("Failed to create node %s", name),
	}
}

func NewNodeUnsupportedError(action, providerType string) *APIError {
	return &APIError{
		Code:    2003,
		Message: fmt.Sprintf("Provider %s does not support %s", providerType, action),
	}
}

func NewValidationError(field string, value interface{}) *APIError {
	return &APIError{
		Code:    3001,
		Message: fmt.Sprintf("Invalid parameter: %s", field),
		Details: fmt.Sprintf("invalid value: %v", value),
	}
}

func NewRACError(operation string, err error) *APIError {
	apiErr := &APIError{
		Code:    4001,
		Message: fmt.Sprintf("RAC operation failed: %s", operation),
	}
	if err != nil {
		apiErr.Details = err.Error()
	}
	return apiErr
}

func NewRACNotFoundError(connectionID string) *APIError {
	return &APIError{
		Code:    4004,
		Message: "Connection not found",
		Details: connectionID,
	}
}

func NewSystemError(err error) *APIError {
	return &APIError{
		Code:    5001,
		Message: "Internal error",
		Details: err.Error(),
	}
}

// HTTPStatus maps an error code to the response status used by the API.
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case 1002, 4004:
		return http.StatusNotFound
	case 4001:
		return http.StatusBadGateway
	case 1001, 2001, 2002, 2003, 3001:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
