package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

type codeRequest struct {
	Code     string `json:"code" binding:"required,item_code"`
	Quantity int64  `json:"quantity" binding:"gt=0"`
}

func TestItemCodeRegex(t *testing.T) {
	for code, want := range map[string]bool{
		"CELL-001": true,
		"EV-100":   true,
		"B1":       true,
		"cell-001": false,
		"-CELL":    false,
		"C":        false,
		"CELL 001": false,
	} {
		assert.Equal(t, want, itemCodeRegex.MatchString(code), code)
	}
}

func TestBindJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitValidator()

	bind := func(body string) error {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		var req codeRequest
		return BindJSON(c, &req)
	}

	require.NoError(t, bind(`{"code":"CELL-001","quantity":5}`))

	err := bind(`{"code":"cell","quantity":0}`)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Equal(t, "must be an uppercase code such as CELL-001", appErr.Details["code"])
	assert.Equal(t, "must be greater than 0", appErr.Details["quantity"])

	err = bind(`{not json`)
	appErr, ok = apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
