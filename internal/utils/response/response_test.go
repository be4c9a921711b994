package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteJSON(rec, http.StatusAccepted, Accepted()))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"accepted"}`, rec.Body.String())
}

func TestGeneralError(t *testing.T) {
	resp := GeneralError(errors.New("boom"))

	assert.Equal(t, Response{Status: StatusError, Error: "boom"}, resp)
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Name   string   `validate:"required"`
		Code   string   `validate:"len=3"`
		Phones []string `validate:"dive,required"`
	}

	err := validator.New().Struct(payload{Code: "x", Phones: []string{"1", ""}})
	require.Error(t, err)

	var errs validator.ValidationErrors
	require.True(t, errors.As(err, &errs))

	resp := ValidationError(errs)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "field Name is required, field Code is invalid, field Phones[1] is required", resp.Error)
}
