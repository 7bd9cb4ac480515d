package crypto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"

	"github.com/newthinker/cointools/internal/core"
)

// Decode parses a response body into a generic JSON tree. Objects are never
// turned into typed values, so bodies carrying type hints like "json_class"
// stay plain data.
func Decode(body []byte) (*fastjson.Value, error) {
	return fastjson.ParseBytes(body)
}

// Shape is the top-level JSON type a caller expects.
type Shape int

const (
	ShapeAny Shape = iota
	ShapeObject
	ShapeArray
)

func (s Shape) matches(v *fastjson.Value) bool {
	switch s {
	case ShapeObject:
		return v.Type() == fastjson.TypeObject
	case ShapeArray:
		return v.Type() == fastjson.TypeArray
	default:
		return true
	}
}

// Classifier turns a raw provider response into either a decoded JSON tree
// or a typed error. Checks run in this order for successful responses:
// decode failure, empty body, embedded error, unexpected shape.
type Classifier struct {
	Expect Shape

	// NotFound is the kind reported for 404 responses. Empty means BadRequest.
	NotFound core.Kind

	// EmptyKind, when set, is reported for null or empty decoded bodies.
	EmptyKind core.Kind

	// Embedded extracts an error message a provider placed inside the body.
	Embedded func(v *fastjson.Value) (string, bool)

	// EmbeddedKind defaults to BadRequest.
	EmbeddedKind core.Kind

	// Message overrides the default JSONError message.
	Message string
}

// Classify applies the classification rules to resp.
func (c Classifier) Classify(resp *Response) (*fastjson.Value, error) {
	switch resp.Class() {
	case StatusSuccess:
		return c.success(resp)
	case StatusNotFound:
		if c.NotFound != "" {
			return nil, resp.Error(c.NotFound, "")
		}
		return nil, c.clientError(resp)
	case StatusClientError:
		return nil, c.clientError(resp)
	default:
		return nil, resp.Error(core.KindServiceUnavailable, "")
	}
}

func (c Classifier) success(resp *Response) (*fastjson.Value, error) {
	v, err := Decode(resp.Body)
	if err != nil {
		e := resp.Error(core.KindJSON, c.Message)
		e.Cause = err
		return nil, e
	}

	if c.EmptyKind != "" && isEmpty(v) {
		return nil, resp.Error(c.EmptyKind, "")
	}

	if c.Embedded != nil {
		if msg, ok := c.Embedded(v); ok {
			return nil, resp.Error(c.embeddedKind(), msg)
		}
	}

	if !c.Expect.matches(v) {
		return nil, resp.Error(core.KindJSON, c.Message)
	}

	return v, nil
}

// clientError never reports JSONError: a 4xx body that does not decode
// simply carries no embedded message.
func (c Classifier) clientError(resp *Response) error {
	if c.Embedded != nil {
		if v, err := Decode(resp.Body); err == nil {
			if msg, ok := c.Embedded(v); ok {
				return resp.Error(c.embeddedKind(), msg)
			}
		}
	}
	return resp.Error(core.KindBadRequest, "")
}

func (c Classifier) embeddedKind() core.Kind {
	if c.EmbeddedKind == "" {
		return core.KindBadRequest
	}
	return c.EmbeddedKind
}

func isEmpty(v *fastjson.Value) bool {
	switch v.Type() {
	case fastjson.TypeNull:
		return true
	case fastjson.TypeObject:
		o, _ := v.Object()
		return o.Len() == 0
	case fastjson.TypeArray:
		a, _ := v.Array()
		return len(a) == 0
	case fastjson.TypeString:
		s, _ := v.StringBytes()
		return len(s) == 0
	}
	return false
}

// Present reports whether v exists and is not JSON null.
func Present(v *fastjson.Value) bool {
	return v != nil && v.Type() != fastjson.TypeNull
}

// Decimal reads a JSON number or numeric string. Missing and null values
// yield an invalid NullDecimal without error.
func Decimal(v *fastjson.Value) (decimal.NullDecimal, error) {
	if !Present(v) {
		return decimal.NullDecimal{}, nil
	}

	var text string
	switch v.Type() {
	case fastjson.TypeNumber:
		text = v.String()
	case fastjson.TypeString:
		text = string(v.GetStringBytes())
	default:
		return decimal.NullDecimal{}, fmt.Errorf("expected number, got %s", v.Type())
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parsing decimal %q: %w", text, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// String reads a required JSON string.
func String(v *fastjson.Value) (string, bool) {
	if v == nil || v.Type() != fastjson.TypeString {
		return "", false
	}
	return string(v.GetStringBytes()), true
}

// Int reads a JSON integer. Fractional numbers are rejected.
func Int(v *fastjson.Value) (int64, bool) {
	if v == nil || v.Type() != fastjson.TypeNumber {
		return 0, false
	}
	n, err := v.Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// OptionalInt reads an integer counter that some providers send as a float.
func OptionalInt(v *fastjson.Value) *int64 {
	if !Present(v) || v.Type() != fastjson.TypeNumber {
		return nil
	}
	if n, err := v.Int64(); err == nil {
		return &n
	}
	f, err := v.Float64()
	if err != nil {
		return nil
	}
	n := int64(f)
	return &n
}

// Unix converts an integer timestamp in seconds to a local time.
func Unix(sec int64) *time.Time {
	t := time.Unix(sec, 0)
	return &t
}
