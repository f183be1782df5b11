package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// apiError is an error with an HTTP status and a stable code.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func notFound(format string, args ...any) *apiError {
	return &apiError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: "INVALID_REQUEST", Message: fmt.Sprintf(format, args...)}
}

// toAPIError maps err to an apiError, treating Kubernetes not-found errors
// as 404 and everything else as 500.
func toAPIError(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	if apierrors.IsNotFound(err) {
		return &apiError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	}
	return &apiError{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// handleError writes err as JSON for API routes and as an error page
// otherwise.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ae := toAPIError(err)
	logger := s.logger.WithContext(r.Context())
	if ae.Status >= http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
	} else {
		logger.Debug("%s %s: %v", r.Method, r.URL.Path, err)
	}

	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, ae.Status, map[string]string{
			"error":   ae.Code,
			"message": ae.Message,
		})
		return
	}

	view := errorView{
		page:    newPage(r.PathValue("ws"), ""),
		Title:   http.StatusText(ae.Status),
		Message: ae.Message,
	}
	if renderErr := s.pages.render(w, ae.Status, "error", view); renderErr != nil {
		logger.Error("Failed to render error page: %v", renderErr)
		http.Error(w, ae.Message, ae.Status)
	}
}
