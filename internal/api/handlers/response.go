package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/narvanalabs/sgt-web/internal/api/errors"
	"github.com/narvanalabs/sgt-web/internal/runner"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	apierrors.WriteJSON(w, status, data)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, apierrors.NewInvalidRequest(message))
}

// WriteCommandError writes a 500 response. Failures of sgt itself carry
// its error message; anything else is reported as an internal error.
func WriteCommandError(w http.ResponseWriter, r *http.Request, err error) {
	if !runner.IsExecError(err) {
		writeError(w, r, apierrors.NewInternalError("failed to run sgt"))
		return
	}
	writeError(w, r, apierrors.NewCommandFailed(err.Error()))
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierrors.NewNotFound("no such endpoint: "+r.Method+" "+r.URL.Path))
}

func writeError(w http.ResponseWriter, r *http.Request, err *apierrors.APIError) {
	apierrors.WriteError(w, err.WithRequestID(middleware.GetReqID(r.Context())))
}
