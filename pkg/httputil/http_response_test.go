package httputil_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/limbo/habitrack/pkg/httputil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	httputil.WriteErrorResponse(rr, http.StatusBadRequest, "invalid request", errors.New("title is required"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var resp httputil.ErrorResponse
	require.NoError(t, sonic.ConfigDefault.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, httputil.ErrorResponse{Code: 400, Message: "invalid request", Details: "title is required"}, resp)
}

func TestWriteJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	httputil.WriteJSONResponse(rr, http.StatusOK, map[string]any{"deleted": true})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"deleted":true}`, rr.Body.String())

	rr = httptest.NewRecorder()
	httputil.WriteJSONResponse(rr, http.StatusNoContent, nil)
	assert.Empty(t, rr.Body.String())
}
