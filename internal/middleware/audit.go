package middleware

import (
	"bytes"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/backend/pkg/logger"
)

// AuditLog records authenticated write operations (POST/PATCH/PUT/DELETE)
// to the structured log, with sensitive body fields masked.
func AuditLog() gin.HandlerFunc {
	auditLog := logger.With("audit")
	return func(c *gin.Context) {
		method := c.Request.Method
		// Only audit write operations
		if method != "POST" && method != "PATCH" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		// Capture request body (up to 2000 chars), skipping multipart uploads
		var bodySnippet string
		contentType := c.ContentType()
		if c.Request.Body != nil && !strings.HasPrefix(contentType, "multipart/") {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > 2000 {
				bodySnippet = bodySnippet[:2000] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		auditLog.Info().
			Uint("user_id", GetUserID(c)).
			Str("username", GetUsername(c)).
			Str("method", method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("ip", c.ClientIP()).
			Str("body", bodySnippet).
			Msg("write operation")
	}
}

// maskSensitiveFields blanks out credential values in a JSON body snippet.
func maskSensitiveFields(body string) string {
	for _, field := range []string{"password", "token", "secret"} {
		idx := 0
		for {
			start := strings.Index(body[idx:], `"`+field+`"`)
			if start == -1 {
				break
			}
			start += idx
			colon := strings.Index(body[start:], ":")
			if colon == -1 {
				break
			}
			valStart := start + colon + 1
			// Find the value boundary (next comma or closing brace)
			valEnd := valStart
			for valEnd < len(body) && body[valEnd] != ',' && body[valEnd] != '}' {
				valEnd++
			}
			body = body[:valStart] + `"****"` + body[valEnd:]
			idx = valStart + 6
		}
	}
	return body
}
