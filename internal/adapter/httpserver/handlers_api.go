package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/scorecast/internal/domain"
	apperrors "github.com/pscheid92/scorecast/internal/platform/errors"
)

const maxUpdateBodySize = "1M"

func (s *Server) registerAPIRoutes() {
	s.echo.POST("/update", s.handleUpdate,
		newRateLimiter(s.config.UpdateRateLimit, s.config.UpdateRateBurst),
		middleware.BodyLimit(maxUpdateBodySize),
	)
	s.echo.GET("/api/state", s.handleGetState)
}

// handleUpdate replaces the top-level fields present in the JSON body and pushes the
// full document to every viewer.
func (s *Server) handleUpdate(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return apperrors.ValidationError("failed to read request body")
	}

	var patch domain.DocumentPatch
	if err := json.Unmarshal(body, &patch); err != nil || patch == nil {
		return apperrors.ValidationError("request body must be a JSON object")
	}

	if _, err := s.hub.BulkUpdate(c.Request().Context(), patch); err != nil {
		return mapHubError(err, "failed to apply update")
	}

	if err := c.JSON(http.StatusOK, domain.StatusResponse{Status: "success"}); err != nil {
		return fmt.Errorf("failed to write update response: %w", err)
	}
	return nil
}

func (s *Server) handleGetState(c echo.Context) error {
	doc, err := s.hub.Document(c.Request().Context())
	if err != nil {
		return mapHubError(err, "failed to read scoreboard")
	}

	if err := c.JSON(http.StatusOK, doc); err != nil {
		return fmt.Errorf("failed to write state response: %w", err)
	}
	return nil
}

func mapHubError(err error, message string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidPatch), errors.Is(err, domain.ErrInvalidTeamID):
		return apperrors.ValidationError(err.Error())
	case errors.Is(err, domain.ErrHubStopped):
		return apperrors.UnavailableError("scoreboard is shutting down", err)
	default:
		return apperrors.InternalError(message, err)
	}
}
