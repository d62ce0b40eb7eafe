// Package validation evaluates the binding rules declared on request and
// meal plan models and reports every violation, not just the first.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Sources identify which side of the pipeline produced a validation error
const (
	SourceRequest  = "request"
	SourceResponse = "response"
)

var (
	yearMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
	minutesPattern   = regexp.MustCompile(`^\d+ mins$`)

	registerOnce sync.Once
)

// Issue is a single violated rule
type Issue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error carries the complete list of violations for a value
type Error struct {
	Source string
	Issues []Issue
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s validation failed with %d issue(s)", e.Source, len(e.Issues))
}

// MalformedError reports input that is not syntactically valid JSON
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return "malformed JSON: " + e.Err.Error()
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Engine returns gin's validator with the project's custom rules registered.
// Call it before binding any request.
func Engine() *validator.Validate {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		panic("validation: gin validator engine is not go-playground/validator")
	}
	registerOnce.Do(func() {
		v.RegisterTagNameFunc(jsonFieldName)
		mustRegister(v, "yearmonth", yearMonthPattern)
		mustRegister(v, "minutes", minutesPattern)
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// Decode unmarshals data into dst and validates the result. Syntactically
// invalid JSON yields a *MalformedError; type mismatches and rule violations
// are collected together into a single *Error, each with its indexed path.
// Object keys must match json tags exactly; unknown keys are ignored.
func Decode(data []byte, dst any, source string) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return &MalformedError{Err: err}
	}

	w := &typeWalker{}
	cleaned := w.walk("", raw, reflect.TypeOf(dst))

	// The cleaned document only holds values that fit their fields.
	normalized, err := json.Marshal(cleaned)
	if err != nil {
		return fmt.Errorf("validation: re-encode: %w", err)
	}
	if err := json.Unmarshal(normalized, dst); err != nil {
		return fmt.Errorf("validation: decode: %w", err)
	}

	issues := w.issues
	for _, issue := range Struct(dst) {
		if w.covers(issue.Path) {
			continue
		}
		issues = append(issues, issue)
	}

	if len(issues) > 0 {
		return &Error{Source: source, Issues: issues}
	}
	return nil
}

// typeWalker checks a generic JSON document against a Go type, recording a
// type issue per mismatched value and replacing it with null.
type typeWalker struct {
	issues []Issue
	paths  []string
}

func (w *typeWalker) mismatch(path, expected string, v any) any {
	w.issues = append(w.issues, Issue{
		Path:    path,
		Code:    "invalid_type",
		Message: fmt.Sprintf("expected %s, received %s", expected, jsonKind(v)),
	})
	w.paths = append(w.paths, path)
	return nil
}

// covers reports whether path is at or below a value already reported as mistyped
func (w *typeWalker) covers(path string) bool {
	for _, p := range w.paths {
		if path == p || p == "" ||
			strings.HasPrefix(path, p+".") || strings.HasPrefix(path, p+"[") {
			return true
		}
	}
	return false
}

func (w *typeWalker) walk(path string, v any, t reflect.Type) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v == nil {
		return nil
	}

	switch t.Kind() {
	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			return w.mismatch(path, "object", v)
		}
		out := make(map[string]any, len(obj))
		w.walkFields(path, obj, t, out)
		return out
	case reflect.Slice, reflect.Array:
		arr, ok := v.([]any)
		if !ok {
			return w.mismatch(path, "array", v)
		}
		out := make([]any, len(arr))
		for i, elem := range arr {
			out[i] = w.walk(fmt.Sprintf("%s[%d]", path, i), elem, t.Elem())
		}
		return out
	case reflect.Map:
		obj, ok := v.(map[string]any)
		if !ok {
			return w.mismatch(path, "object", v)
		}
		out := make(map[string]any, len(obj))
		for k, elem := range obj {
			out[k] = w.walk(joinPath(path, k), elem, t.Elem())
		}
		return out
	case reflect.String:
		if _, ok := v.(string); !ok {
			return w.mismatch(path, "string", v)
		}
	case reflect.Bool:
		if _, ok := v.(bool); !ok {
			return w.mismatch(path, "boolean", v)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) || overflows(n, t) {
			return w.mismatch(path, "integer", v)
		}
	case reflect.Float32, reflect.Float64:
		if _, ok := v.(float64); !ok {
			return w.mismatch(path, "number", v)
		}
	}
	return v
}

// walkFields copies the keys of obj that name a field of t, flattening embedded structs
func (w *typeWalker) walkFields(path string, obj map[string]any, t reflect.Type, out map[string]any) {
	for i := 0; i < t.NumField(); i++ {
		fld := t.Field(i)
		if !fld.IsExported() {
			continue
		}
		tag := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if tag == "-" {
			continue
		}
		if fld.Anonymous && tag == "" && fld.Type.Kind() == reflect.Struct {
			w.walkFields(path, obj, fld.Type, out)
			continue
		}
		name := jsonFieldName(fld)
		if v, ok := obj[name]; ok {
			out[name] = w.walk(joinPath(path, name), v, fld.Type)
		}
	}
}

func overflows(n float64, t reflect.Type) bool {
	zero := reflect.New(t).Elem()
	if zero.CanInt() {
		return n < math.MinInt64 || n > math.MaxInt64 || zero.OverflowInt(int64(n))
	}
	return n < 0 || n > math.MaxUint64 || zero.OverflowUint(uint64(n))
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func jsonKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "null"
	}
}

// Struct validates an already-populated value and returns its violations
func Struct(v any) []Issue {
	err := Engine().Struct(v)
	if err == nil {
		return nil
	}
	return IssuesFrom(err)
}

// IssuesFrom converts a validator error into issues
func IssuesFrom(err error) []Issue {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Issue{{Code: "invalid", Message: err.Error()}}
	}

	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{
			Path:    fieldPath(fe.Namespace()),
			Code:    fe.Tag(),
			Message: message(fe),
		})
	}
	return issues
}

// fieldPath drops the root struct name from a validator namespace
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "yearmonth":
		return "must match YYYY-MM"
	case "minutes":
		return `must match "<digits> mins"`
	case "datetime":
		return "must be a date in YYYY-MM-DD form"
	case "email":
		return "must be a valid email address"
	default:
		return "failed " + fe.Tag() + " rule"
	}
}
