package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	UserName        string  `json:"userName" validate:"required,min=3,max=20"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required,eqfield=Password"`
	Gender          *string `json:"gender" validate:"omitempty,oneof=male female other"`
}

func TestWriteSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteCreated(rec, "Post created", map[string]int{"id": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Post created", body["message"])
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, body["data"])
}

func TestWriteError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteForbidden(rec, "You cannot follow yourself")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"You cannot follow yourself","code":"FORBIDDEN"}`, rec.Body.String())
}

func TestWriteUploadFailed(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteUploadFailed(rec, "Unable to upload image")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Unable to upload image","code":"UPLOAD_FAILED"}`, rec.Body.String())
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	other := "robot"
	fields := Validate(&signup{
		UserName:        "al",
		Email:           "not-an-email",
		Password:        "password1",
		ConfirmPassword: "password2",
		Gender:          &other,
	})

	require.NotNil(t, fields)
	assert.Equal(t, "userName must be at least 3 characters", fields["userName"])
	assert.Equal(t, "Please enter a valid email", fields["email"])
	assert.Equal(t, "Passwords do not match", fields["confirmPassword"])
	assert.Equal(t, "gender must be one of: male, female, other", fields["gender"])
	assert.NotContains(t, fields, "password")
}

func TestValidate_Valid(t *testing.T) {
	fields := Validate(&signup{
		UserName:        "alice",
		Email:           "alice@example.com",
		Password:        "password1",
		ConfirmPassword: "password1",
	})
	assert.Nil(t, fields)
}

func TestBindJSON(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

		var dst signup
		assert.False(t, BindJSON(rec, req, &dst))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation errors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userName":"alice"}`))

		var dst signup
		assert.False(t, BindJSON(rec, req, &dst))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, ErrCodeBadRequest, body.Code)
		assert.Equal(t, "email is required", body.Errors["email"])
	})

	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
			`{"userName":"alice","email":"alice@example.com","password":"password1","confirmPassword":"password1"}`))

		var dst signup
		assert.True(t, BindJSON(rec, req, &dst))
		assert.Equal(t, "alice", dst.UserName)
	})
}
