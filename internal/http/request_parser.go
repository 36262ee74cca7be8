// Package http serves the calculator views over htmx.
//
// This file parses and validates the small form payloads posted by the
// views. htmx sends form-encoded bodies; JSON bodies (json-enc) are also
// accepted.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies; the largest legitimate one is a title edit.
const maxBodyBytes = 16 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// NavigateRequest asks for a view change.
type NavigateRequest struct {
	View string `validate:"required,oneof=home scheme gpa gpa-result cgpa"`
}

// EditRequest is one field edit on a course or semester row.
type EditRequest struct {
	Index int    `validate:"gte=0"`
	Field string `validate:"required,oneof=title credit marks gpa"`
	Value string `validate:"max=1000"`
}

// ClearRequest carries the user's answer to the clear prompt.
type ClearRequest struct {
	Confirm bool
}

// RequestBodyParser reads a request body once and exposes its values.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like JSON, otherwise as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a value without trimming; typed text is kept as entered.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseNavigateRequest reads and validates a view change.
func ParseNavigateRequest(w http.ResponseWriter, r *http.Request) (NavigateRequest, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return NavigateRequest{}, err
	}
	req := NavigateRequest{View: strings.TrimSpace(p.Get("view"))}
	return req, validateRequest(req)
}

// ParseEditRequest reads and validates a row edit.
func ParseEditRequest(w http.ResponseWriter, r *http.Request) (EditRequest, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return EditRequest{}, err
	}
	index, err := strconv.Atoi(strings.TrimSpace(p.Get("index")))
	if err != nil {
		index = -1
	}
	req := EditRequest{
		Index: index,
		Field: strings.TrimSpace(p.Get("field")),
		Value: p.Get("value"),
	}
	return req, validateRequest(req)
}

// ParseClearRequest reads the confirmation flag; anything unparsable is a no.
func ParseClearRequest(w http.ResponseWriter, r *http.Request) (ClearRequest, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return ClearRequest{}, err
	}
	confirm, _ := strconv.ParseBool(strings.TrimSpace(p.Get("confirm")))
	return ClearRequest{Confirm: confirm}, nil
}

// validateRequest turns validator failures into a short user-facing error.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return name + " must be one of: " + fe.Param()
	case "gte":
		return name + " must be a row number"
	case "max":
		return name + " is too long"
	default:
		return name + " is invalid"
	}
}

// RequireMethod checks the request method, returning a 405 builder on mismatch.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET is a convenience function for read-only handlers.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}
