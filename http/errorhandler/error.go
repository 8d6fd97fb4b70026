// Package errorhandler turns errors of echo handlers into JSON api.Error responses.
package errorhandler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sacnlogger/configsync/http/api"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler is a general handler for echo handler errors
func HTTPErrorHandler(err error, c echo.Context) {
	var e api.Error
	var he *echo.HTTPError

	switch {
	case errors.As(err, &e):
	case errors.As(err, &he):
		if he.Internal != nil {
			if herr, ok := he.Internal.(*echo.HTTPError); ok {
				he = herr
			}
		}

		e = api.Error{
			Code:    he.Code,
			Message: http.StatusText(he.Code),
			Details: strings.Split(fmt.Sprintf("%v", he.Message), "\n"),
		}
	default:
		e = api.Err(http.StatusInternalServerError, "", "%s", err.Error())
	}

	// Send response
	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(e.Code)
		return
	}

	c.JSON(e.Code, e)
}
