package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/skillsharehub/marketplace/internal/api/handler"
	"github.com/skillsharehub/marketplace/internal/core/domain"
)

type errorResponse = handler.ErrorResponse

var kindStatus = map[domain.Kind]int{
	domain.KindNotFound:            http.StatusNotFound,
	domain.KindAlreadyEnrolled:     http.StatusBadRequest,
	domain.KindDuplicateRating:     http.StatusBadRequest,
	domain.KindWrongEnrollmentPath: http.StatusBadRequest,
	domain.KindValidation:          http.StatusBadRequest,
	domain.KindPaymentNotApproved:  http.StatusBadRequest,
	domain.KindConflict:            http.StatusConflict,
	domain.KindUnauthorized:        http.StatusUnauthorized,
	domain.KindForbidden:           http.StatusForbidden,
	domain.KindPaymentGateway:      http.StatusInternalServerError,
	domain.KindInternal:            http.StatusInternalServerError,
}

// sentinels whose text, or the detail wrapped right after it, is safe to
// show to clients. Order matters: the first match wins.
var sentinels = []error{
	domain.ErrCourseNotFound,
	domain.ErrUserNotFound,
	domain.ErrRatingNotFound,
	domain.ErrPaymentOrderNotFound,
	domain.ErrAlreadyEnrolled,
	domain.ErrDuplicateRating,
	domain.ErrWrongEnrollmentPath,
	domain.ErrValidation,
	domain.ErrInvalidTransition,
	domain.ErrPaymentNotApproved,
	domain.ErrCaptureInProgress,
	domain.ErrUserExists,
	domain.ErrInvalidCredentials,
	domain.ErrForbidden,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message", "kind", "error"?}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message), Kind: kindForStatus(he.Code)}
	}

	kind := domain.KindOf(err)
	resp := errorResponse{Kind: kind}

	switch kind {
	case domain.KindPaymentGateway:
		var gw *domain.PaymentGatewayError
		if errors.As(err, &gw) {
			resp.Error = gw.Payload
		}
		resp.Message = "payment provider request failed"
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Str("request_id", requestID(c)).
			Msg("payment gateway error")
		return kindStatus[kind], resp

	case domain.KindPaymentNotApproved:
		var na *domain.PaymentNotApprovedError
		if errors.As(err, &na) {
			resp.Payment = na.Payload
		}
		resp.Message = "Payment not approved"
		return kindStatus[kind], resp

	case domain.KindInternal:
		// Unexpected error: log the real cause, return a generic message.
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Str("request_id", requestID(c)).
			Msg("unhandled error")
		resp.Message = "internal server error"
		return http.StatusInternalServerError, resp
	}

	resp.Message = publicMessage(err)
	return kindStatus[kind], resp
}

// publicMessage strips operation prefixes added while wrapping and returns
// the detail after the first known sentinel, or the sentinel text itself.
func publicMessage(err error) string {
	msg := err.Error()
	for _, s := range sentinels {
		if !errors.Is(err, s) {
			continue
		}
		text := s.Error()
		i := strings.Index(msg, text)
		if i < 0 {
			return text
		}
		if detail, ok := strings.CutPrefix(msg[i+len(text):], ": "); ok && detail != "" {
			return detail
		}
		return text
	}
	return msg
}

func kindForStatus(code int) domain.Kind {
	switch code {
	case http.StatusNotFound:
		return domain.KindNotFound
	case http.StatusUnauthorized:
		return domain.KindUnauthorized
	case http.StatusForbidden:
		return domain.KindForbidden
	case http.StatusConflict:
		return domain.KindConflict
	}
	if code >= 400 && code < 500 {
		return domain.KindValidation
	}
	return domain.KindInternal
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
