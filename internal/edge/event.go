// Package edge adapts the gateway to CDN viewer-request events delivered
// through AWS Lambda.
package edge

import (
	"encoding/json"
	"net/http"
	"strings"
)

type Event struct {
	Records []Record `json:"Records"`
}

type Record struct {
	CF CF `json:"cf"`
}

// CF keeps the request undecoded so it can be handed back byte for byte.
type CF struct {
	Config  Config          `json:"config"`
	Request json.RawMessage `json:"request"`
}

type Config struct {
	DistributionDomainName string `json:"distributionDomainName"`
	DistributionID         string `json:"distributionId"`
	EventType              string `json:"eventType"`
	RequestID              string `json:"requestId"`
}

type Request struct {
	ClientIP    string  `json:"clientIp"`
	Method      string  `json:"method"`
	URI         string  `json:"uri"`
	QueryString string  `json:"querystring"`
	Headers     Headers `json:"headers"`
}

// Headers are keyed by the lowercase header name. Each entry keeps the name
// as sent in Key.
type Headers map[string][]Header

type Header struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

type Response struct {
	Status            string  `json:"status"`
	StatusDescription string  `json:"statusDescription"`
	Headers           Headers `json:"headers"`
	Body              string  `json:"body,omitempty"`
}

// HTTPHeader converts h into an http.Header.
func (h Headers) HTTPHeader() http.Header {
	out := make(http.Header, len(h))
	for name, entries := range h {
		for _, e := range entries {
			key := e.Key
			if key == "" {
				key = name
			}
			out.Add(key, e.Value)
		}
	}

	return out
}

// HeadersFrom converts an http.Header into the lowercase-keyed form. Every
// value becomes its own entry, so multiple Set-Cookie values stay separate.
func HeadersFrom(h http.Header) Headers {
	out := make(Headers, len(h))
	for key, values := range h {
		name := strings.ToLower(key)
		for _, v := range values {
			out[name] = append(out[name], Header{Key: http.CanonicalHeaderKey(key), Value: v})
		}
	}

	return out
}
