package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// maxLoggedBody caps how many bytes of each body are kept for the log
const maxLoggedBody = 4096

const redacted = "[REDACTED]"

// quoteRoutePrefix marks the routes whose "id" parameter is a quote id
const quoteRoutePrefix = "/v1/quotes/:id"

// sensitiveKey matches header names and JSON keys whose values never reach the log
var sensitiveKey = regexp.MustCompile(`(?i)(password|token|api[-_]?key|secret|authorization|credential|session|cookie|signature|x-amz-)`)

// captureWriter tees the response into a buffer capped at maxLoggedBody
type captureWriter struct {
	gin.ResponseWriter
	body      bytes.Buffer
	truncated bool
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		if len(b) > room {
			w.body.Write(b[:room])
			w.truncated = true
		} else {
			w.body.Write(b)
		}
	} else if len(b) > 0 {
		w.truncated = true
	}
	return w.ResponseWriter.Write(b)
}

// LoggerConfig holds configuration for the logger middleware
type LoggerConfig struct {
	Format    string   // "json" or "pretty"
	Level     string   // "debug", "info", "warn", "error"
	SkipPaths []string // exact paths that are never logged
	Output    io.Writer
}

// LogEntry is one logged request
type LogEntry struct {
	Timestamp    string              `json:"timestamp"`
	RequestID    string              `json:"request_id,omitempty"`
	Method       string              `json:"method"`
	Path         string              `json:"path"`
	Route        string              `json:"route,omitempty"`
	QuoteID      string              `json:"quote_id,omitempty"`
	StatusCode   int                 `json:"status_code"`
	Latency      string              `json:"latency"`
	BytesIn      int                 `json:"bytes_in"`
	BytesOut     int                 `json:"bytes_out"`
	ClientIP     string              `json:"client_ip"`
	UserAgent    string              `json:"user_agent,omitempty"`
	Headers      map[string]string   `json:"headers,omitempty"`
	QueryParams  map[string][]string `json:"query_params,omitempty"`
	RequestBody  interface{}         `json:"request_body,omitempty"`
	ResponseBody interface{}         `json:"response_body,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// RequestResponseLogger logs one entry per request. Level "warn" keeps only
// 4xx and 5xx responses and "error" only 5xx. Headers and bodies are added at
// "debug" and for every failed request.
func RequestResponseLogger(config LoggerConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}
	out := config.Output
	if out == nil {
		out = gin.DefaultWriter
	}
	minStatus := minimumStatus(config.Level)
	debug := strings.EqualFold(config.Level, "debug")
	write := writeJSON
	if config.Format == "pretty" {
		write = writePretty
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}
		start := time.Now()

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(requestBody))
		}
		capture := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = capture

		c.Next()

		status := c.Writer.Status()
		if status < minStatus {
			return
		}

		entry := newEntry(c, len(requestBody), time.Since(start))
		if debug || status >= 400 {
			entry.Headers = redactHeaders(c.Request.Header)
			if len(requestBody) > 0 {
				body, truncated := requestBody, false
				if len(body) > maxLoggedBody {
					body, truncated = body[:maxLoggedBody], true
				}
				entry.RequestBody = decodeBody(body, truncated)
			}
			if capture.body.Len() > 0 {
				entry.ResponseBody = decodeBody(capture.body.Bytes(), capture.truncated)
			}
		}
		write(out, entry)
	}
}

func minimumStatus(level string) int {
	switch strings.ToLower(level) {
	case "warn", "warning":
		return 400
	case "error":
		return 500
	default:
		return 0
	}
}

func newEntry(c *gin.Context, bytesIn int, latency time.Duration) LogEntry {
	entry := LogEntry{
		Timestamp:  time.Now().Format(time.RFC3339),
		RequestID:  c.GetString(requestIDKey),
		Method:     c.Request.Method,
		Path:       c.Request.URL.Path,
		Route:      c.FullPath(),
		StatusCode: c.Writer.Status(),
		Latency:    latency.String(),
		BytesIn:    bytesIn,
		BytesOut:   c.Writer.Size(),
		ClientIP:   c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
	if strings.HasPrefix(entry.Route, quoteRoutePrefix) {
		entry.QuoteID = c.Param("id")
	}
	if entry.BytesOut < 0 {
		entry.BytesOut = 0
	}
	if q := c.Request.URL.Query(); len(q) > 0 {
		entry.QueryParams = q
	}
	if len(c.Errors) > 0 {
		entry.Error = c.Errors.String()
	}
	return entry
}

func redactHeaders(headers map[string][]string) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveKey.MatchString(key) {
			out[key] = redacted
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// decodeBody returns the body as redacted JSON when it parses, otherwise as
// text. Truncated bodies are never parsed.
func decodeBody(body []byte, truncated bool) interface{} {
	if truncated {
		return string(body) + "... (truncated)"
	}
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body)
	}
	redactValue(decoded)
	return decoded
}

func redactValue(data interface{}) {
	switch v := data.(type) {
	case map[string]interface{}:
		for key, value := range v {
			if sensitiveKey.MatchString(key) {
				v[key] = redacted
				continue
			}
			redactValue(value)
		}
	case []interface{}:
		for _, item := range v {
			redactValue(item)
		}
	}
}

func writeJSON(out io.Writer, entry LogEntry) {
	line, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(out, "{\"error\":%q}\n", "failed to marshal log entry: "+err.Error())
		return
	}
	fmt.Fprintln(out, string(line))
}

func writePretty(out io.Writer, entry LogEntry) {
	fmt.Fprintf(out, "[%s] %d %s %s %s", entry.Timestamp, entry.StatusCode, entry.Method, entry.Path, entry.Latency)
	if entry.RequestID != "" {
		fmt.Fprintf(out, " req=%s", entry.RequestID)
	}
	if entry.QuoteID != "" {
		fmt.Fprintf(out, " quote=%s", entry.QuoteID)
	}
	fmt.Fprintf(out, " in=%dB out=%dB ip=%s\n", entry.BytesIn, entry.BytesOut, entry.ClientIP)

	for key, values := range entry.QueryParams {
		fmt.Fprintf(out, "    ?%s=%s\n", key, strings.Join(values, ","))
	}
	for _, part := range []struct {
		label string
		body  interface{}
	}{{"request", entry.RequestBody}, {"response", entry.ResponseBody}} {
		label, body := part.label, part.body
		if body == nil {
			continue
		}
		indented, err := json.MarshalIndent(body, "    ", "  ")
		if err != nil {
			fmt.Fprintf(out, "    %s: %v\n", label, body)
			continue
		}
		fmt.Fprintf(out, "    %s: %s\n", label, indented)
	}
	if entry.Error != "" {
		fmt.Fprintf(out, "    error: %s\n", entry.Error)
	}
}
