package shared

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// AuthHeaders is the browser header set ytmusicapi accepts as authentication ("headers_auth.json").
type AuthHeaders map[string]string

// AuthKind names where auth material came from.
type AuthKind string

const (
	AuthInlineJSON   AuthKind = "inline_json"
	AuthUploadedFile AuthKind = "uploaded_file"
	AuthFixedPath    AuthKind = "fixed_path"
)

// AuthSource is one of the three accepted ways of supplying auth material.
//
// Exactly one of Inline, Reader or Path is read, selected by Kind.
type AuthSource struct {
	Kind   AuthKind
	Inline string
	Reader io.Reader
	Path   string
}

// InlineAuth builds an [AuthSource] from a JSON string.
func InlineAuth(raw string) AuthSource { return AuthSource{Kind: AuthInlineJSON, Inline: raw} }

// UploadedAuth builds an [AuthSource] from an uploaded JSON file.
func UploadedAuth(r io.Reader) AuthSource { return AuthSource{Kind: AuthUploadedFile, Reader: r} }

// FixedAuth builds an [AuthSource] from a configured filesystem location.
func FixedAuth(path string) AuthSource { return AuthSource{Kind: AuthFixedPath, Path: path} }

// LoadAuthHeaders reads and parses the auth material described by src.
func LoadAuthHeaders(src AuthSource) (AuthHeaders, error) {
	var data []byte

	switch src.Kind {
	case AuthInlineJSON:
		if strings.TrimSpace(src.Inline) == "" {
			return nil, fmt.Errorf("%w: empty inline auth JSON", ErrMissingCredentials)
		}
		data = []byte(src.Inline)
	case AuthUploadedFile:
		if src.Reader == nil {
			return nil, fmt.Errorf("%w: no uploaded auth file", ErrMissingCredentials)
		}
		b, err := io.ReadAll(src.Reader)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read uploaded auth file: %v", ErrInvalidCredentials, err)
		}
		data = b
	case AuthFixedPath:
		if src.Path == "" {
			return nil, fmt.Errorf("%w: no auth headers path configured", ErrMissingCredentials)
		}
		b, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrInvalidCredentials, src.Path, err)
		}
		data = b
	default:
		return nil, fmt.Errorf("%w: unknown auth source %q", ErrInvalidArgument, src.Kind)
	}

	return ParseAuthHeaders(data)
}

// ParseAuthHeaders decodes a JSON object of header name to value.
//
// Non-string values are rendered with their JSON text.
func ParseAuthHeaders(data []byte) (AuthHeaders, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: auth JSON has no headers", ErrInvalidCredentials)
	}

	headers := make(AuthHeaders, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			headers[k] = val
		case nil:
			continue
		default:
			b, _ := json.Marshal(val)
			headers[k] = string(b)
		}
	}
	return headers, nil
}

// JSON renders the headers as an indented JSON object with sorted keys.
func (h AuthHeaders) JSON() ([]byte, error) {
	return json.MarshalIndent(map[string]string(h), "", "  ")
}

// Encoded returns the base64 form forwarded to the proxy in X-Auth-Headers.
func (h AuthHeaders) Encoded() (string, error) {
	b, err := json.Marshal(map[string]string(h))
	if err != nil {
		return "", fmt.Errorf("failed to encode auth headers: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Names returns the header names in sorted order, for logging without values.
func (h AuthHeaders) Names() []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
