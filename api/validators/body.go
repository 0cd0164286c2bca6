package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}()

// ruleMessages renders a failed tag; %s receives the tag parameter.
var ruleMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"gt":       "must be greater than %s",
	"gte":      "must be at least %s",
	"lte":      "must be at most %s",
	"len":      "must have length %s",
	"oneof":    "must be one of [%s]",
	"uuid":     "must be a valid uuid",
	"email":    "must be a valid email",
	"dive":     "has an invalid element",
}

// DecodeJSONBody reads one JSON object into dest, rejecting unknown fields,
// trailing data and oversized bodies, then runs the struct's validate tags.
// Field errors are keyed by their JSON path.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes+1))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed JSON body").
			WithDetails(map[string]any{"error": describeDecodeError(err)})
	}
	if dec.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, "body must contain a single JSON object")
	}
	if dec.InputOffset() > MaxBodyBytes {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
			WithDetails(map[string]any{"max_bytes": MaxBodyBytes})
	}
	return ValidateStruct(dest)
}

// ValidateStruct runs validate tags on an already decoded value.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	named := rootTypeNamed(v)
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fieldPath(fe, named)] = ruleMessage(fe)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

// fieldPath renders "lines[0].quantity". The validator prefixes the
// namespace with the root type name only for named types.
func fieldPath(fe validator.FieldError, rootNamed bool) string {
	ns := fe.Namespace()
	if !rootNamed {
		return ns
	}
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func rootTypeNamed(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Name() != ""
}

func ruleMessage(fe validator.FieldError) string {
	msg, ok := ruleMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %s must be %s", typeErr.Field, typeErr.Type)
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("syntax error at byte %d", syntaxErr.Offset)
	case errors.Is(err, io.EOF):
		return "body is empty"
	}
	return err.Error()
}
