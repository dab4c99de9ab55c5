// Package payload checks that an API response has the shape the caller
// is about to rely on. Validation is key presence only; value coercion
// is fail-soft and left to the caller via the helpers in coerce.go.
package payload

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Object is a decoded top-level JSON object, values left raw.
type Object map[string]json.RawMessage

func Decode(body []byte) (Object, error) {
	var obj Object
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	return obj, nil
}

// Keys returns the top-level keys actually present, sorted.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Str decodes the named field as a string; "" when absent or not a
// string.
func (o Object) Str(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Shape declares what a valid response looks like: the keys that must
// be present, and the fields an API uses to embed human-readable
// error/notice text worth echoing in the failure.
type Shape struct {
	Required []string
	Message  []string
}

// ShapeError reports a structurally wrong response. It is never worth
// retrying: the same request would yield the same shape.
type ShapeError struct {
	Missing []string
	Present []string
	Message string
}

func (e *ShapeError) Error() string {
	msg := fmt.Sprintf(
		"missing required key(s) %s, present keys: [%s]",
		strings.Join(e.Missing, ", "),
		strings.Join(e.Present, ", "),
	)
	if e.Message != "" {
		msg += fmt.Sprintf(", api says: %q", e.Message)
	}
	return msg
}

// Validate checks the object against the shape and returns a
// *ShapeError naming missing and present keys on mismatch.
func Validate(o Object, s Shape) error {
	var missing []string
	for _, key := range s.Required {
		if _, ok := o[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var message string
	for _, field := range s.Message {
		if msg := o.Str(field); msg != "" {
			message = msg
			break
		}
	}
	return &ShapeError{
		Missing: missing,
		Present: o.Keys(),
		Message: message,
	}
}
