package auction

import (
	"errors"
	"net/http"

	"github.com/mcdev12/pxfc-auction/go/internal/httpapi"
)

var (
	ErrInvalidBid           = errors.New("bid amount must be a positive number")
	ErrInvalidCommand       = errors.New("player_id and team_id must be positive")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrPlayerAlreadySold    = errors.New("player is already sold")
	ErrTeamNotFound         = errors.New("team not found")
	ErrBidBelowMinimum      = errors.New("bid is below the player's base price")
	ErrInsufficientBudget   = errors.New("insufficient budget")
	ErrPlayerNotOwnedByTeam = errors.New("player is not owned by this team")

	// ErrTransactionFailed wraps storage failures. The transaction was rolled back.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrLockTimeout means a row lock could not be taken before the deadline.
	ErrLockTimeout = errors.New("timed out waiting for a lock")
)

type errorMapping struct {
	status int
	code   string
}

var errorMappings = []struct {
	err error
	errorMapping
}{
	{ErrInvalidBid, errorMapping{http.StatusBadRequest, "INVALID_BID"}},
	{ErrInvalidCommand, errorMapping{http.StatusBadRequest, "INVALID_REQUEST"}},
	{ErrPlayerNotFound, errorMapping{http.StatusNotFound, "PLAYER_NOT_FOUND"}},
	{ErrPlayerAlreadySold, errorMapping{http.StatusBadRequest, "PLAYER_ALREADY_SOLD"}},
	{ErrTeamNotFound, errorMapping{http.StatusNotFound, "TEAM_NOT_FOUND"}},
	{ErrBidBelowMinimum, errorMapping{http.StatusBadRequest, "BID_BELOW_MINIMUM"}},
	{ErrInsufficientBudget, errorMapping{http.StatusBadRequest, "INSUFFICIENT_BUDGET"}},
	{ErrPlayerNotOwnedByTeam, errorMapping{http.StatusBadRequest, "PLAYER_NOT_OWNED_BY_TEAM"}},
	{ErrLockTimeout, errorMapping{http.StatusServiceUnavailable, "LOCK_TIMEOUT"}},
	{ErrTransactionFailed, errorMapping{http.StatusInternalServerError, "TRANSACTION_FAILED"}},
}

// IsRetryable reports whether err is transient and the same command may succeed later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionFailed) || errors.Is(err, ErrLockTimeout)
}

// isRejection reports whether err is a business rule rejection rather than a storage failure.
func isRejection(err error) bool {
	for _, s := range errorMappings {
		if s.status < http.StatusInternalServerError && errors.Is(err, s.err) {
			return true
		}
	}
	return false
}

// toAPIError maps an engine error to its HTTP representation.
func toAPIError(err error) *httpapi.Error {
	for _, s := range errorMappings {
		if !errors.Is(err, s.err) {
			continue
		}
		message := err.Error()
		if s.status >= http.StatusInternalServerError {
			message = s.err.Error()
		}
		return &httpapi.Error{
			Status:    s.status,
			Code:      s.code,
			Message:   message,
			Retryable: IsRetryable(err),
			Err:       err,
		}
	}
	var apiErr *httpapi.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &httpapi.Error{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL",
		Message: "internal server error",
		Err:     err,
	}
}
