package errorhandler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sacnlogger/configsync/encoding/json"
	"github.com/sacnlogger/configsync/http/api"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, method string, err error) (*httptest.ResponseRecorder, api.Error) {
	router := echo.New()

	req := httptest.NewRequest(method, "/", nil)
	w := httptest.NewRecorder()

	HTTPErrorHandler(err, router.NewContext(req, w))

	e := api.Error{}
	if method != http.MethodHead {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	}

	return w, e
}

func TestAPIError(t *testing.T) {
	w, e := handle(t, http.MethodGet, api.Err(http.StatusUnprocessableEntity, "Invalid configuration", "universe %d", 0))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "Invalid configuration", e.Message)
	require.Equal(t, []string{"universe 0"}, e.Details)
}

func TestEchoError(t *testing.T) {
	w, e := handle(t, http.MethodGet, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too large"))

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Equal(t, "Request Entity Too Large", e.Message)
	require.Equal(t, []string{"too large"}, e.Details)
}

func TestOtherError(t *testing.T) {
	w, e := handle(t, http.MethodGet, errors.New("disk full"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, []string{"disk full"}, e.Details)

	w, _ = handle(t, http.MethodHead, errors.New("disk full"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Empty(t, w.Body.Bytes())
}
