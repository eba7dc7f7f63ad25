package handlers

import (
	"errors"
	"net/http"

	"github.com/forklab-edu/forklab/internal/catalog"
	"github.com/forklab-edu/forklab/internal/core/session"
	"github.com/forklab-edu/forklab/internal/core/traversal"
	"github.com/forklab-edu/forklab/internal/core/tree"
)

// statusFor maps engine errors to HTTP status codes: unknown references are
// 404, rule violations are 409, anything else is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, tree.ErrUnknownTarget):
		return http.StatusNotFound
	case errors.Is(err, session.ErrWrongMode),
		errors.Is(err, tree.ErrInvalidOperation),
		errors.Is(err, tree.ErrInvalidParentState),
		errors.Is(err, tree.ErrHasLiveChildren),
		errors.Is(err, tree.ErrNoZombieChildren),
		errors.Is(err, traversal.ErrUnsupportedShape):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
