package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	jsonMediaType = "application/json"

	// BodyHeadLimit caps how many runes of a non-JSON body are kept for
	// diagnostics. Enough to recognize an HTML error page, short enough
	// for a log line.
	BodyHeadLimit = 220

	// How much of a non-JSON body is read before collapsing. Error pages
	// fit easily; anything larger is noise.
	headReadLimit = 64 << 10

	missingContentType = "(none)"
)

// NonJSONError reports a completed response whose body was not JSON at
// all. The usual culprit is a proxy or dev server answering with an HTML
// page and a 200 status.
type NonJSONError struct {
	ContentType string
	Head        string
}

func (e *NonJSONError) Error() string {
	if e.Head == "" {
		return fmt.Sprintf("non-JSON response (content-type %s)", e.ContentType)
	}
	return fmt.Sprintf("non-JSON response (content-type %s): %s", e.ContentType, e.Head)
}

// BodyError reports a response that declared JSON but failed to decode.
type BodyError struct {
	Message string
}

func (e *BodyError) Error() string {
	return "invalid JSON body: " + e.Message
}

// APIError is a domain-level failure: the backend answered with valid
// JSON but flagged the operation as failed, or used an HTTP error status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
}

// DecodeJSON classifies a response body before any field of it is read.
// A body without a JSON content type yields a NonJSONError carrying a
// short diagnostic head; a JSON-typed body that fails to parse yields a
// BodyError. Only after a successful decode may callers trust v.
//
// The HTTP status is deliberately not inspected here: error statuses
// with a JSON body still decode, so domain errors keep their payload.
func DecodeJSON(resp *http.Response, v interface{}) error {
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), jsonMediaType) {
		label := contentType
		if label == "" {
			label = missingContentType
		}
		return &NonJSONError{ContentType: label, Head: readBodyHead(resp.Body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &BodyError{Message: err.Error()}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &BodyError{Message: err.Error()}
	}
	return nil
}

// readBodyHead captures a whitespace-collapsed prefix of a non-JSON body
// for logging. It never fails: an unreadable body yields whatever was
// read before the failure, possibly nothing.
func readBodyHead(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, headReadLimit))
	collapsed := strings.Join(strings.Fields(string(raw)), " ")
	runes := []rune(collapsed)
	if len(runes) > BodyHeadLimit {
		return string(runes[:BodyHeadLimit])
	}
	return collapsed
}
