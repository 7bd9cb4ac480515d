package crypto

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"

	"github.com/newthinker/cointools/internal/core"
)

func response(code int, body string) *Response {
	return &Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       []byte(body),
	}
}

func embeddedCode(v *fastjson.Value) (string, bool) {
	if msg, ok := String(v.Get("message")); ok && Present(v.Get("code")) {
		return msg, true
	}
	return "", false
}

func kindOf(t *testing.T, err error) core.Kind {
	t.Helper()
	var e *core.Error
	require.True(t, errors.As(err, &e), "expected *core.Error, got %T", err)
	return e.Kind
}

func TestClassify_Success(t *testing.T) {
	c := Classifier{Expect: ShapeObject}

	v, err := c.Classify(response(200, `{"last": 1.5}`))
	require.NoError(t, err)
	assert.Equal(t, 1.5, v.GetFloat64("last"))
}

func TestClassify_Idempotent(t *testing.T) {
	c := Classifier{Expect: ShapeArray}
	resp := response(200, `{"a": 1}`)

	_, err1 := c.Classify(resp)
	_, err2 := c.Classify(resp)
	assert.Equal(t, err1, err2)
}

func TestClassify_JSONClassIsPlainData(t *testing.T) {
	c := Classifier{Expect: ShapeObject}

	v, err := c.Classify(response(200, `{"json_class": "File", "last": 2}`))
	require.NoError(t, err)
	assert.Equal(t, fastjson.TypeString, v.Get("json_class").Type())
}

func TestClassify_Table(t *testing.T) {
	tests := []struct {
		name       string
		classifier Classifier
		resp       *Response
		kind       core.Kind
		message    string
	}{
		{
			name:       "invalid json",
			classifier: Classifier{Expect: ShapeObject},
			resp:       response(200, `<html>`),
			kind:       core.KindJSON,
			message:    "Incorrect JSON structure",
		},
		{
			name:       "wrong shape",
			classifier: Classifier{Expect: ShapeObject},
			resp:       response(200, `[1, 2]`),
			kind:       core.KindJSON,
		},
		{
			name:       "custom structure message",
			classifier: Classifier{Expect: ShapeArray, Message: "Listings must be a list"},
			resp:       response(200, `{}`),
			kind:       core.KindJSON,
			message:    "Listings must be a list",
		},
		{
			name:       "empty body as unknown coin",
			classifier: Classifier{Expect: ShapeObject, EmptyKind: core.KindUnknownCoin},
			resp:       response(200, `null`),
			kind:       core.KindUnknownCoin,
			message:    "OK",
		},
		{
			name:       "embedded error in success body",
			classifier: Classifier{Expect: ShapeObject, Embedded: embeddedCode, EmbeddedKind: core.KindErrorResponse},
			resp:       response(200, `{"code": 4002, "message": "Invalid market"}`),
			kind:       core.KindErrorResponse,
			message:    "Invalid market",
		},
		{
			name:       "not found default",
			classifier: Classifier{},
			resp:       response(404, `Not Found`),
			kind:       core.KindBadRequest,
			message:    "Not Found",
		},
		{
			name:       "not found provider kind",
			classifier: Classifier{NotFound: core.KindUnknownExchange},
			resp:       response(404, ``),
			kind:       core.KindUnknownExchange,
			message:    "Not Found",
		},
		{
			name:       "client error",
			classifier: Classifier{Expect: ShapeObject},
			resp:       response(400, `<html>bad</html>`),
			kind:       core.KindBadRequest,
			message:    "Bad Request",
		},
		{
			name:       "client error with embedded message",
			classifier: Classifier{Embedded: embeddedCode},
			resp:       response(429, `{"code": 1, "message": "Slow down"}`),
			kind:       core.KindBadRequest,
			message:    "Slow down",
		},
		{
			name:       "server error",
			classifier: Classifier{Expect: ShapeObject},
			resp:       response(503, `{"message": "maintenance"}`),
			kind:       core.KindServiceUnavailable,
			message:    "Service Unavailable",
		},
		{
			name:       "redirect",
			classifier: Classifier{},
			resp:       response(301, ``),
			kind:       core.KindServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.classifier.Classify(tt.resp)
			require.Error(t, err)
			assert.Nil(t, v)
			assert.Equal(t, tt.kind, kindOf(t, err))
			if tt.message != "" {
				var e *core.Error
				require.True(t, errors.As(err, &e))
				assert.Equal(t, tt.message, e.Message)
			}
		})
	}
}

func TestClassify_CarriesResponse(t *testing.T) {
	_, err := Classifier{}.Classify(response(500, ``))

	var e *core.Error
	require.True(t, errors.As(err, &e))
	require.NotNil(t, e.Response)
	assert.Equal(t, 500, e.Response.StatusCode)
	assert.True(t, errors.Is(err, core.ErrResponse))
}

func TestDecimal(t *testing.T) {
	v, err := fastjson.Parse(`{"n": 6543.21, "s": "0.00012", "z": null, "b": true, "bad": "abc"}`)
	require.NoError(t, err)

	d, err := Decimal(v.Get("n"))
	require.NoError(t, err)
	assert.True(t, d.Valid)
	assert.Equal(t, "6543.21", d.Decimal.String())

	d, err = Decimal(v.Get("s"))
	require.NoError(t, err)
	assert.Equal(t, "0.00012", d.Decimal.String())

	d, err = Decimal(v.Get("z"))
	require.NoError(t, err)
	assert.False(t, d.Valid)

	d, err = Decimal(v.Get("missing"))
	require.NoError(t, err)
	assert.False(t, d.Valid)

	_, err = Decimal(v.Get("b"))
	assert.Error(t, err)

	_, err = Decimal(v.Get("bad"))
	assert.Error(t, err)
}

func TestIntAndString(t *testing.T) {
	v, err := fastjson.Parse(`{"i": 3, "f": 1.5, "s": "x", "n": null, "cost": 2.0}`)
	require.NoError(t, err)

	n, ok := Int(v.Get("i"))
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)

	_, ok = Int(v.Get("f"))
	assert.False(t, ok)

	_, ok = Int(v.Get("s"))
	assert.False(t, ok)

	s, ok := String(v.Get("s"))
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = String(v.Get("i"))
	assert.False(t, ok)

	assert.Nil(t, OptionalInt(v.Get("n")))
	require.NotNil(t, OptionalInt(v.Get("cost")))
	assert.Equal(t, int64(2), *OptionalInt(v.Get("cost")))
}
