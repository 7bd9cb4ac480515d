package core

import "fmt"

// Kind identifies a class of failure.
type Kind string

const (
	// Caller input rejected before any request is made
	KindUserInput           Kind = "USER_INPUT"
	KindInvalidSymbol       Kind = "INVALID_SYMBOL"
	KindInvalidExchange     Kind = "INVALID_EXCHANGE"
	KindInvalidFiatCurrency Kind = "INVALID_FIAT_CURRENCY"
	KindInvalidDate         Kind = "INVALID_DATE"

	// Failures derived from a provider response
	KindResponse           Kind = "RESPONSE"
	KindJSON               Kind = "JSON"
	KindNoData             Kind = "NO_DATA"
	KindBadRequest         Kind = "BAD_REQUEST"
	KindUnknownCoin        Kind = "UNKNOWN_COIN"
	KindUnknownExchange    Kind = "UNKNOWN_EXCHANGE"
	KindErrorResponse      Kind = "ERROR_RESPONSE"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"

	// Configuration
	KindConfigInvalid Kind = "CONFIG_INVALID"
	KindConfigMissing Kind = "CONFIG_MISSING"
)

// parents maps a kind to the broader kind it specializes.
var parents = map[Kind]Kind{
	KindInvalidSymbol:       KindUserInput,
	KindInvalidExchange:     KindUserInput,
	KindInvalidFiatCurrency: KindUserInput,
	KindInvalidDate:         KindUserInput,

	KindJSON:               KindResponse,
	KindNoData:             KindResponse,
	KindBadRequest:         KindResponse,
	KindServiceUnavailable: KindResponse,
	KindUnknownCoin:        KindBadRequest,
	KindUnknownExchange:    KindBadRequest,
	KindErrorResponse:      KindBadRequest,
}

// IsA reports whether k equals target or specializes it.
func (k Kind) IsA(target Kind) bool {
	for cur := k; cur != ""; cur = parents[cur] {
		if cur == target {
			return true
		}
	}
	return false
}

// ResponseInfo is the part of a provider response kept for diagnostics.
type ResponseInfo struct {
	StatusCode int
	Status     string // full status line, e.g. "404 Not Found"
}

// Error represents a structured error with kind, message and optional cause.
type Error struct {
	Kind     Kind
	Message  string
	Response *ResponseInfo
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by kind, including broader kinds:
// an unknown coin error matches ErrBadRequest and ErrResponse.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind.IsA(t.Kind)
	}
	return false
}

// NiceMessage formats the error for end users.
func (e *Error) NiceMessage() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// WrapError creates a new error with the same kind but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Kind:    base.Kind,
		Message: base.Message,
		Cause:   cause,
	}
}

// InputError builds a user input error. An empty message keeps the default one.
func InputError(base *Error, message string) *Error {
	if message == "" {
		message = base.Message
	}
	return &Error{Kind: base.Kind, Message: message}
}

// ResponseError builds a response error for the given status. The message
// defaults to the kind's own default, or to the status line.
func ResponseError(kind Kind, statusCode int, status, message string) *Error {
	if message == "" {
		message = defaultMessages[kind]
	}
	if message == "" {
		message = status
	}
	return &Error{
		Kind:     kind,
		Message:  message,
		Response: &ResponseInfo{StatusCode: statusCode, Status: status},
	}
}

var defaultMessages = map[Kind]string{
	KindJSON:   "Incorrect JSON structure",
	KindNoData: "Missing data in the response",
}

// Predefined errors
var (
	// Input errors
	ErrUserInput           = &Error{Kind: KindUserInput, Message: "invalid input"}
	ErrInvalidSymbol       = &Error{Kind: KindInvalidSymbol, Message: "invalid symbol"}
	ErrInvalidExchange     = &Error{Kind: KindInvalidExchange, Message: "invalid exchange"}
	ErrInvalidFiatCurrency = &Error{Kind: KindInvalidFiatCurrency, Message: "invalid fiat currency"}
	ErrInvalidDate         = &Error{Kind: KindInvalidDate, Message: "invalid date"}

	// Response errors
	ErrResponse           = &Error{Kind: KindResponse, Message: "invalid response"}
	ErrJSON               = &Error{Kind: KindJSON, Message: defaultMessages[KindJSON]}
	ErrNoData             = &Error{Kind: KindNoData, Message: defaultMessages[KindNoData]}
	ErrBadRequest         = &Error{Kind: KindBadRequest, Message: "bad request"}
	ErrUnknownCoin        = &Error{Kind: KindUnknownCoin, Message: "unknown coin"}
	ErrUnknownExchange    = &Error{Kind: KindUnknownExchange, Message: "unknown exchange"}
	ErrErrorResponse      = &Error{Kind: KindErrorResponse, Message: "error response"}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable, Message: "service unavailable"}

	// Config errors
	ErrConfigInvalid = &Error{Kind: KindConfigInvalid, Message: "configuration invalid"}
	ErrConfigMissing = &Error{Kind: KindConfigMissing, Message: "required configuration missing"}
)
