package middleware

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
)

// maxHeaderValueSize caps any single request header value.
const maxHeaderValueSize = 8192 // 8KB

// Sanitize rejects malformed requests before they reach a handler. The
// API surface is small, table names in the path plus a few boolean
// query parameters, so traversal sequences, null bytes, and header
// splitting have no legitimate use here. Blocked requests get a
// 400 with an OperationOutcome body.
func Sanitize() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			rawPath := req.URL.RawPath
			if rawPath == "" {
				rawPath = path
			}

			if hasTraversal(path) || hasTraversal(rawPath) {
				return reject(c, "path traversal detected")
			}
			if hasNullByte(path) || hasNullByte(rawPath) {
				return reject(c, "null byte in path")
			}

			for name, values := range req.Header {
				for _, v := range values {
					if len(v) > maxHeaderValueSize {
						return reject(c, "header value exceeds maximum size: "+name)
					}
					if strings.ContainsAny(v, "\r\n") {
						return reject(c, "header injection detected: "+name)
					}
				}
			}

			for key, values := range req.URL.Query() {
				if hasNullByte(key) {
					return reject(c, "null byte in query parameter")
				}
				for _, v := range values {
					if hasNullByte(v) {
						return reject(c, "null byte in query parameter")
					}
				}
			}

			return next(c)
		}
	}
}

// hasTraversal reports dot-dot sequences in raw, percent-encoded, and
// double-encoded form.
func hasTraversal(s string) bool {
	if strings.Contains(s, "..") {
		return true
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e")
}

func hasNullByte(s string) bool {
	return strings.ContainsRune(s, '\x00') || strings.Contains(strings.ToLower(s), "%00")
}

func reject(c echo.Context, diagnostics string) error {
	return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome(diagnostics))
}

// SanitizeString strips null bytes and control characters, keeping
// \n, \r, \t, and trims surrounding whitespace. Handlers run
// caller-supplied identifiers such as table names through it before
// use.
func SanitizeString(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == '\x00' {
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
