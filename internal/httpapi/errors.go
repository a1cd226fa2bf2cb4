package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cory-johannsen/basecamp/internal/expedition"
	"github.com/cory-johannsen/basecamp/internal/game/biome"
	"github.com/cory-johannsen/basecamp/internal/game/combat"
	"github.com/cory-johannsen/basecamp/internal/game/ledger"
	"github.com/cory-johannsen/basecamp/internal/game/roster"
)

// apiError is the body of every non-2xx response.
type apiError struct {
	Message string `json:"message"`
}

var (
	conflictErrors = []error{
		expedition.ErrNoRunsAvailable,
		ledger.ErrRunsExhausted,
		expedition.ErrPlayerExists,
		expedition.ErrEncounterResolved,
		expedition.ErrItemUnavailable,
		combat.ErrCombatAlreadyInProgress,
		combat.ErrCombatAlreadyEnded,
		combat.ErrNoActiveCombat,
		combat.ErrEmptyParty,
		combat.ErrIneligibleActor,
		roster.ErrPartyFull,
		roster.ErrAlreadyInParty,
	}
	notFoundErrors = []error{
		expedition.ErrPlayerNotFound,
		expedition.ErrEncounterNotFound,
		roster.ErrCreatureNotFound,
	}
	badRequestErrors = []error{
		biome.ErrInvalidBiome,
		roster.ErrInvalidPosition,
		expedition.ErrInvalidDate,
		expedition.ErrInvalidPoints,
		expedition.ErrInvalidAction,
		expedition.ErrUnknownItem,
		combat.ErrInvalidItem,
		combat.ErrUnknownCreature,
	}
)

func matches(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case matches(err, conflictErrors):
		return http.StatusConflict
	case matches(err, notFoundErrors):
		return http.StatusNotFound
	case matches(err, badRequestErrors):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError writes the error response for err and aborts the chain.
// Internal errors are attached to the context for the request logger and
// their text is not returned to the client.
func handleServiceError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, apiError{Message: "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, apiError{Message: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Message: err.Error()})
}
