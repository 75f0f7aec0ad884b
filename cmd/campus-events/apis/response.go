package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func success(c echo.Context, status int, data any) error {
	return c.JSON(
		status,
		model.BaseResponse{
			Success: true,
			Data:    data,
		},
	)
}

func successMessage(c echo.Context, message string) error {
	return c.JSON(
		http.StatusOK,
		model.BaseResponse{
			Success: true,
			Message: message,
		},
	)
}

func paged[T any](c echo.Context, page model.Page[T]) error {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return c.JSON(
		http.StatusOK,
		model.BaseResponse{
			Success:    true,
			Data:       items,
			Pagination: model.NewPagination(page.Query, page.Total),
		},
	)
}

// bind decodes the request into req and validates it.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

var kindStatus = map[model.ErrorKind]int{
	model.KindValidation:   http.StatusBadRequest,
	model.KindState:        http.StatusBadRequest,
	model.KindUnauthorized: http.StatusUnauthorized,
	model.KindForbidden:    http.StatusForbidden,
	model.KindNotFound:     http.StatusNotFound,
	model.KindConflict:     http.StatusConflict,
	model.KindExhausted:    http.StatusConflict,
	model.KindLocked:       http.StatusLocked,
}

// NewErrorHandler renders every error returned by a handler as the
// response envelope. Internal failures are logged and answered with a
// generic message.
func NewErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := render(err)
		if status >= http.StatusInternalServerError {
			logger.Errorj(log.JSON{
				"message": "request failed",
				"method":  c.Request().Method,
				"uri":     c.Request().RequestURI,
				"error":   err.Error(),
			})
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			logger.Errorj(log.JSON{
				"message": "failed to write error response",
				"error":   err.Error(),
			})
		}
	}
}

func render(err error) (int, model.BaseResponse) {
	var (
		validationErrs validator.ValidationErrors
		appErr         *model.Error
		httpErr        *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErrs):
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = fe.Tag()
		}
		return http.StatusBadRequest, model.BaseResponse{
			Message: "validation failed",
			Errors:  fields,
		}
	case errors.As(err, &appErr):
		status, ok := kindStatus[appErr.Kind]
		if !ok {
			return http.StatusInternalServerError, model.BaseResponse{Message: "internal server error"}
		}
		return status, model.BaseResponse{Message: appErr.Message}
	case errors.As(err, &httpErr):
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, model.BaseResponse{Message: http.StatusText(httpErr.Code)}
		}
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, model.BaseResponse{Message: message}
	default:
		return http.StatusInternalServerError, model.BaseResponse{Message: "internal server error"}
	}
}
