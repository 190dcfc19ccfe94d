package logger

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// sensitivePatterns match credential material that must never reach logs.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[a-zA-Z0-9]{32,}`),     // OpenAI-style API keys
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),   // Google API keys
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_-]+`), // Bearer tokens
}

// sensitiveHeaders are redacted wholesale when logging request headers.
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"x-api-key":     true,
	"cookie":        true,
}

// RedactSensitiveData removes API keys and tokens from strings, keeping
// the first few characters for debugging context.
func RedactSensitiveData(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if strings.HasPrefix(match, "Bearer ") {
				return "Bearer [REDACTED]"
			}
			if len(match) > 8 {
				return match[:4] + "...[REDACTED]"
			}
			return "[REDACTED]"
		})
	}
	return result
}

// RedactHeaders returns a copy of headers safe for logging.
func RedactHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	redacted := make(map[string]string, len(headers))
	for key, value := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			redacted[key] = "[REDACTED]"
			continue
		}
		redacted[key] = RedactSensitiveData(value)
	}
	return redacted
}

// HTTPRequest logs an outbound step HTTP request at debug level with
// redaction. No-op when debug logging is disabled.
func HTTPRequest(method, url string, headers map[string]string) {
	if !DefaultLogger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	Debug("http request",
		"method", method,
		"url", RedactSensitiveData(url),
		"headers", RedactHeaders(headers),
	)
}

// HTTPResponse logs an HTTP response status at debug level.
func HTTPResponse(method, url string, statusCode int) {
	if !DefaultLogger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	Debug("http response",
		"method", method,
		"url", RedactSensitiveData(url),
		"status_code", statusCode,
	)
}
