package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
)

func TestActionFailureCarriesMessageAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Action(c, http.StatusOK, nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found"))

	require.Equal(t, http.StatusNotFound, w.Code)
	var body ActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "lead not found", body.Error)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestActionSuccessOmitsError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Action(c, http.StatusOK, map[string]string{"id": "lead-1"}, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"lead-1"}}`, w.Body.String())
}
