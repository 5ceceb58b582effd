package httpapi

import (
	"errors"
	"net/http"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/store"
	"workspace-platform/internal/workspace"
	"workspace-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string                 `json:"error"`
	Reason string                 `json:"reason,omitempty"`
	Fields []workspace.FieldError `json:"fields,omitempty"`
}

// notFound is shared by missing and foreign entities so a caller cannot tell
// them apart.
var notFound = errorBody{Error: "resource not found"}

// fail writes the response for err and aborts the chain.
func fail(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err, "path", c.FullPath())
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, errorBody) {
	if reason, ok := rbac.ReasonOf(err); ok {
		switch reason {
		case rbac.ReasonForeignTenant:
			return http.StatusNotFound, notFound
		case rbac.ReasonUnauthenticated:
			return http.StatusUnauthorized, errorBody{Error: "authentication failed", Reason: string(reason)}
		case rbac.ReasonQuotaExceeded:
			return http.StatusForbidden, errorBody{Error: "plan limit reached", Reason: string(reason)}
		case rbac.ReasonSuspended:
			return http.StatusForbidden, errorBody{Error: "account suspended", Reason: string(reason)}
		default:
			return http.StatusForbidden, errorBody{Error: "forbidden", Reason: string(reason)}
		}
	}

	var verr *workspace.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: "validation failed", Fields: verr.Fields}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, notFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, errorBody{Error: "resource already exists"}
	case errors.Is(err, workspace.ErrInvalidReference), errors.Is(err, store.ErrInvalidReference):
		return http.StatusBadRequest, errorBody{Error: "referenced entity is not available"}
	case errors.Is(err, workspace.ErrNothingToUpdate):
		return http.StatusBadRequest, errorBody{Error: "no fields to update"}
	case errors.Is(err, workspace.ErrInvalidArgument):
		return http.StatusBadRequest, errorBody{Error: "invalid request"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error"}
	}
}

func badJSON(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid json"})
}
