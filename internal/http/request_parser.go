package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"greefin/internal/eco"
)

// MaxBodyBytes caps survey request bodies.
const MaxBodyBytes = 64 << 10

var (
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// RequestBodyParser reads a survey submission sent as JSON, YAML or
// form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	err         error
}

// NewRequestBodyParser reads the body once, up to MaxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: mediaType(r.Header.Get("Content-Type"))}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(p.err, &tooLarge) {
		p.err = fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
	}
	return p
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(header))
	}
	return mt
}

// ContentType returns the request media type without parameters.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON reports whether the body is decoded as JSON: either declared so, or
// sent undeclared or as text/plain and shaped like a JSON document.
func (p *RequestBodyParser) IsJSON() bool {
	switch p.contentType {
	case "application/json":
		return true
	case "", "text/plain":
	default:
		return false
	}
	trimmed := bytes.TrimSpace(p.body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[' || bytes.Equal(trimmed, []byte("null")))
}

func (p *RequestBodyParser) isYAML() bool {
	switch p.contentType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return true
	}
	return false
}

// ParseSurvey decodes the body into a survey response. An empty body is the
// empty response. JSON and YAML documents must be objects (or null);
// eco.ErrNotObject reports other shapes. Form decoding applies only to
// urlencoded or undeclared bodies.
func (p *RequestBodyParser) ParseSurvey() (eco.SurveyResponse, error) {
	if p.err != nil {
		return eco.SurveyResponse{}, p.err
	}
	if len(bytes.TrimSpace(p.body)) == 0 {
		return eco.SurveyResponse{}, nil
	}

	switch {
	case p.IsJSON():
		return eco.DecodeJSON(p.body)
	case p.isYAML():
		return eco.DecodeYAML(p.body)
	case p.contentType != "" && p.contentType != "application/x-www-form-urlencoded":
		return eco.SurveyResponse{}, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, p.contentType)
	}

	form, err := url.ParseQuery(string(p.body))
	if err != nil {
		return eco.SurveyResponse{}, fmt.Errorf("parse form: %w", err)
	}
	return eco.FromValues(formValues(form)), nil
}

func formValues(form url.Values) map[string]any {
	out := make(map[string]any, len(form))
	for key, values := range form {
		clean := make([]string, len(values))
		for i, v := range values {
			clean[i] = sanitizeInput(v)
		}
		out[key] = clean
	}
	return out
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(methods...)
}

// RequireGET accepts GET and HEAD.
func RequireGET(r *http.Request) *JSONResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

func RequirePOST(r *http.Request) *JSONResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}
