package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/etnz/psw"
	"github.com/etnz/psw/store"
	"github.com/go-fuego/fuego"
)

// fail converts a store or validation error into the HTTP error fuego sends.
func fail(err error) error {
	var verr psw.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		fields := make([]string, 0, len(verr))
		for f := range verr {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		items := make([]fuego.ErrorItem, 0, len(fields))
		for _, f := range fields {
			items = append(items, fuego.ErrorItem{Name: f, Reason: verr[f]})
		}
		return fuego.BadRequestError{Title: "Validation failed", Detail: err.Error(), Err: err, Errors: items}
	case errors.Is(err, store.ErrNotFound):
		return fuego.NotFoundError{Title: "Not found", Detail: err.Error(), Err: err}
	case errors.Is(err, store.ErrDuplicate):
		return fuego.ConflictError{Title: "Already exists", Detail: err.Error(), Err: err}
	case errors.Is(err, store.ErrForbidden):
		return fuego.ForbiddenError{Title: "Forbidden", Detail: err.Error(), Err: err}
	case errors.Is(err, store.ErrInvalidCredentials):
		return fuego.UnauthorizedError{Title: "Invalid credentials", Detail: err.Error(), Err: err}
	}
	return err
}

func badRequest(detail string) error {
	return fuego.BadRequestError{Title: "Bad request", Detail: detail}
}

// writeProblem sends an error from a plain http middleware.
func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(fuego.HTTPError{Title: title, Status: status, Detail: detail})
}
