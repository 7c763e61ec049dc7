package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"carmarket/internal/domain/shared/fault"
)

// statusForKind is the single place fault kinds become HTTP statuses.
func statusForKind(kind fault.Kind) int {
	switch kind {
	case fault.MissingField, fault.InvalidRange:
		return http.StatusBadRequest
	case fault.NotFound:
		return http.StatusNotFound
	case fault.Forbidden:
		return http.StatusForbidden
	case fault.Conflict, fault.InvalidOperation, fault.Unavailable:
		return http.StatusConflict
	case fault.AlreadyProcessed:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := fault.KindOf(err)
	status := statusForKind(kind)
	body := gin.H{"error": fault.MessageOf(err), "code": string(kind)}
	if status == http.StatusInternalServerError {
		body = gin.H{"error": "internal error", "code": string(fault.Server)}
	}
	c.JSON(status, body)
}
