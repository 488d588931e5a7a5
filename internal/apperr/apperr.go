package apperr

import (
	"context"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrTagValidation = goerr.NewTag("validation")
	ErrTagNotFound   = goerr.NewTag("not_found")
	ErrTagStorage    = goerr.NewTag("storage")
)

// Status maps a tagged error to the HTTP status it should be reported with.
func Status(err error) int {
	switch {
	case goerr.HasTag(err, ErrTagValidation):
		return http.StatusBadRequest
	case goerr.HasTag(err, ErrTagNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func IsValidation(err error) bool {
	return goerr.HasTag(err, ErrTagValidation)
}

func IsNotFound(err error) bool {
	return goerr.HasTag(err, ErrTagNotFound)
}

func Handle(ctx context.Context, err error) {
	logger := ctxlog.From(ctx)
	logger.Error("application error", "error", err)
}
