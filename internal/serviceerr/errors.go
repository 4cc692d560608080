// Package serviceerr holds the error taxonomy of the gateway. None of these
// errors is ever shown to the user: each one ends in a login redirect or, when
// no configuration is available at all, a plain 500.
package serviceerr

import (
	"errors"
	"fmt"
	"strings"
)

type Code string

const (
	CodeConfiguration     Code = "configuration_error"
	CodeStateLost         Code = "pkce_state_lost"
	CodeTokenExchange     Code = "token_exchange_failed"
	CodeMalformedToken    Code = "malformed_token"
	CodeMalformedResponse Code = "malformed_provider_response"
	CodeUnknown           Code = "unknown"
)

type Error struct {
	Err         Code
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Err, e.Description)
}

// Is matches on the code only, so a described instance still satisfies
// errors.Is against the predefined value.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return e.Err == t.Err
}

var (
	ErrConfiguration     = &Error{Err: CodeConfiguration, Description: "required configuration is missing"}
	ErrStateLost         = &Error{Err: CodeStateLost, Description: "code verifier cookie is missing"}
	ErrTokenExchange     = &Error{Err: CodeTokenExchange, Description: "token endpoint rejected the exchange"}
	ErrMalformedToken    = &Error{Err: CodeMalformedToken, Description: "session token could not be decoded"}
	ErrMalformedResponse = &Error{Err: CodeMalformedResponse, Description: "token endpoint returned an unusable body"}
	ErrUnknown           = &Error{Err: CodeUnknown, Description: "unknown error"}
)

// ConfigurationError names the parameters that were absent or empty when the
// gateway configuration was loaded.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: missing %s", CodeConfiguration, strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Is(target error) bool {
	return errors.Is(ErrConfiguration, target)
}

// TokenExchangeError is returned when the identity provider answers the
// authorization code exchange with a non-success status. ProviderCode and
// Description carry the RFC 6749 error fields when the body had them.
type TokenExchangeError struct {
	StatusCode   int
	ProviderCode string
	Description  string
}

func (e *TokenExchangeError) Error() string {
	msg := fmt.Sprintf("%s: status %d", CodeTokenExchange, e.StatusCode)
	if e.ProviderCode != "" {
		msg += " (" + e.ProviderCode
		if e.Description != "" {
			msg += ": " + e.Description
		}
		msg += ")"
	}

	return msg
}

func (e *TokenExchangeError) Is(target error) bool {
	return errors.Is(ErrTokenExchange, target)
}
