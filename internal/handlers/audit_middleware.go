package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// AuditMiddleware records every mutating request made by an admin. Request
// bodies are never stored; route params and the query string are.
func AuditMiddleware(audit services.AuditService, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			return
		}
		caller, ok := GetCallerFromContext(c)
		if !ok || !caller.Role.IsAdmin() {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		entry := &models.AdminAuditLog{
			ActorID:    caller.UserID,
			ActorRole:  caller.Role,
			Method:     c.Request.Method,
			Path:       path,
			StatusCode: c.Writer.Status(),
			RequestID:  c.GetString("request_id"),
		}
		if id := firstParam(c, "id", "courseId"); id != "" {
			entry.ResourceID = &id
		}

		payload := map[string]interface{}{}
		for _, p := range c.Params {
			payload[p.Key] = p.Value
		}
		if q := c.Request.URL.RawQuery; q != "" {
			payload["query"] = q
		}
		if raw, err := json.Marshal(payload); err == nil {
			entry.Payload = datatypes.JSON(raw)
		}

		// The response is already written; a failed insert is only logged.
		if err := audit.Record(c.Request.Context(), entry); err != nil {
			utils.GetLogger(c, logger).Error("Failed to write audit log", "error", err)
		}
	}
}

func firstParam(c *gin.Context, names ...string) string {
	for _, n := range names {
		if v := c.Param(n); v != "" {
			return v
		}
	}
	return ""
}
