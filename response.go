package oauth2

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Format is the closed set of response body encodings this module supports.
// Per Design Note "Formatter choice" in spec.md §9, an unknown value is
// rejected rather than silently falling back to a default.
type Format string

// The supported response formats.
const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatForm Format = "form"
)

// ParseFormat parses the "format" request parameter. An empty string
// defaults to FormatJSON per spec.md §9 Open Question (b). Any other
// unrecognized value is rejected.
func ParseFormat(str string) (Format, error) {
	switch Format(str) {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatXML, FormatForm:
		return Format(str), nil
	default:
		return "", InvalidRequest("unknown format")
	}
}

// TokenResponse is the token endpoint success response shape from
// spec.md §4.4.
type TokenResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        Scope  `json:"scope,omitempty"`
}

// NewTokenResponse creates a bearer token response with the given access
// token and lifetime.
func NewTokenResponse(accessToken string, expiresIn int) *TokenResponse {
	return &TokenResponse{
		TokenType:   "Bearer",
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
	}
}

// Render encodes the provided value (a *TokenResponse, a *Error, or any
// value that marshals to a flat JSON object of scalars) in the requested
// format and returns the content type and body to write.
//
// All three formats share the same normalization step — marshal to JSON,
// then unmarshal into a generic map — so that whichever format is chosen,
// the same field values round-trip (spec.md §8 P5).
func Render(value interface{}, format Format) (string, []byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", nil, err
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", nil, err
	}

	switch format {
	case FormatJSON:
		body, err := json.Marshal(fields)
		return "application/json; charset=utf-8", body, err
	case FormatXML:
		body := encodeXML(fields)
		return "application/xml; charset=utf-8", body, nil
	case FormatForm:
		body := encodeForm(fields)
		return "application/x-www-form-urlencoded", body, nil
	default:
		return "", nil, InvalidRequest("unknown format")
	}
}

// encodeXML renders a flat map as a simple <response>...</response> document.
// Keys are sorted for deterministic output.
func encodeXML(fields map[string]interface{}) []byte {
	keys := sortedKeys(fields)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString("<response>")

	for _, key := range keys {
		tag := xmlSafeTag(key)
		b.WriteString("<")
		b.WriteString(tag)
		b.WriteString(">")
		b.WriteString(escapeXML(scalarString(fields[key])))
		b.WriteString("</")
		b.WriteString(tag)
		b.WriteString(">")
	}

	b.WriteString("</response>")

	return []byte(b.String())
}

// encodeForm renders a flat map as application/x-www-form-urlencoded.
func encodeForm(fields map[string]interface{}) []byte {
	values := url.Values{}

	for key, value := range fields {
		values.Set(key, scalarString(value))
	}

	return []byte(values.Encode())
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func xmlSafeTag(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func escapeXML(str string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)

	return replacer.Replace(str)
}

func scalarString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return fmt.Sprintf("%t", v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}

		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
