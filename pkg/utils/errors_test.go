package utils

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want int
	}{
		{"connect", NewConnectError("gcp"), http.StatusBadRequest},
		{"connection not found", NewConnectionNotFoundError("c1"), http.StatusNotFound},
		{"node action", NewNodeActionError("start", "n1"), http.StatusBadRequest},
		{"unsupported", NewNodeUnsupportedError("create", "aws"), http.StatusBadRequest},
		{"validation", NewValidationError("action", "reboot"), http.StatusBadRequest},
		{"rac not found", NewRACNotFoundError("guacamole_1"), http.StatusNotFound},
		{"rac gateway", NewRACError("list", nil), http.StatusBadGateway},
		{"system", NewSystemError(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	assert.Equal(t, "Failed to connect to lxd. Check credentials.", NewConnectError("lxd").Error())
	assert.Equal(t, "Invalid parameter: port: invalid value: 0", NewValidationError("port", 0).Error())
}
