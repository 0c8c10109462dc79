package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "userapi/internal/errors"
)

// bindPayload decodes the request body into a generic map so the validator
// can report wrong types per field instead of failing the whole bind.
func bindPayload(c echo.Context) (map[string]interface{}, error) {
	payload := make(map[string]interface{})

	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEApplicationForm) || strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		form, err := c.FormParams()
		if err != nil {
			return nil, apperrors.ErrMalformedBody
		}
		for key, values := range form {
			if len(values) > 0 {
				payload[key] = values[0]
			}
		}
		return payload, nil
	}

	if ctype == "" && c.Request().ContentLength != 0 {
		c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if err := (&echo.DefaultBinder{}).BindBody(c, &payload); err != nil {
		return nil, apperrors.ErrMalformedBody
	}
	return payload, nil
}

// parseID reads the numeric :id path parameter. Non-numeric ids do not match
// the route, so they are reported as 404 like any unknown path.
func parseID(c echo.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, echo.ErrNotFound
	}
	return uint(id), nil
}
