package api

import (
	"encoding/json"
	"net/http"

	"github.com/fixboard/fixboard/internal/workflow"
	"github.com/fixboard/fixboard/pkg/models"
	"github.com/fixboard/fixboard/pkg/repository"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", "err", err)
	}
}

// writeWorkflowError maps the four-kind error taxonomy onto HTTP statuses.
// Unclassified errors are reported as internal without leaking details.
func writeWorkflowError(w http.ResponseWriter, err error) {
	switch workflow.KindOf(err) {
	case workflow.KindValidation:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case workflow.KindAuthorization:
		http.Error(w, err.Error(), http.StatusForbidden)
	case workflow.KindNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case workflow.KindConflict:
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.Error("internal error", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// currentUser resolves the authenticated actor from the request context.
// Every core operation receives this value explicitly; identity is never
// read from ambient state further down.
func currentUser(r *http.Request, users repository.UserRepo) (*models.User, error) {
	id := UserIDFromContext(r.Context())
	if id <= 0 {
		return nil, workflow.Authorizationf("not authenticated")
	}
	u, err := users.GetUserByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, workflow.Authorizationf("unknown user")
	}
	return u, nil
}
