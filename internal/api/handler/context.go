package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

// ctxActor extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: both user_id and
// role must be present, which proves the middleware ran.
func ctxActor(c echo.Context) (ports.Actor, error) {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if userID == "" || role == "" {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return ports.Actor{UserID: userID, Role: role}, nil
}

// optionalActor is ctxActor for routes mounted with OptionalAuth.
func optionalActor(c echo.Context) (ports.Actor, bool) {
	a, err := ctxActor(c)
	return a, err == nil
}

func invalidPayload(err error) error {
	return fmt.Errorf("%w: invalid payload: %v", domain.ErrValidation, err)
}

// bindAndValidate binds the request into req and runs the echo Validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return invalidPayload(err)
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

// messageResponse is the body of endpoints that only confirm an action.
type messageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error envelope rendered by the API error handler.
type ErrorResponse struct {
	Message string          `json:"message"`
	Kind    domain.Kind     `json:"kind"`
	Error   json.RawMessage `json:"error,omitempty"`
	Payment json.RawMessage `json:"payment,omitempty"`
}
