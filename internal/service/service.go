// Package service holds the use cases behind the HTTP routes and webhooks.
package service

import (
	"errors"
	"time"
	"valorant-missions/internal/api"
	"valorant-missions/internal/apperr"
	"valorant-missions/internal/repository"
)

type Clock func() time.Time

func SystemClock() Clock {
	return func() time.Time { return time.Now().UTC() }
}

// mapRepoError turns storage sentinels into caller-facing errors.
func mapRepoError(err error, notFoundMessage string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.New(apperr.CodeNotFound, notFoundMessage)
	case errors.Is(err, repository.ErrRiotIDTaken):
		return apperr.New(apperr.CodeRiotIDTaken, "Riot ID is already linked to another account")
	case errors.Is(err, repository.ErrRiotAlreadyLinked):
		return apperr.New(apperr.CodeConflict, "Riot ID already linked")
	case errors.Is(err, repository.ErrMissionActive):
		return apperr.New(apperr.CodeMissionAlreadyActive, "Mission already active")
	}
	return err
}

// mapUpstreamError converts Valorant API failures.
func mapUpstreamError(err error, notFoundMessage string) error {
	var rl *api.RateLimitError
	if errors.As(err, &rl) {
		return apperr.RateLimited(rl.RetryAfter)
	}
	var se *api.StatusError
	if errors.As(err, &se) && se.StatusCode == 404 {
		return apperr.New(apperr.CodeNotFound, notFoundMessage)
	}
	return apperr.Wrap(apperr.CodeUpstream, "Valorant API request failed", err)
}
