// Utilities for turning a browser "Copy as cURL" command into auth headers.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRe = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// ParseCurlFile reads a .sh file containing a cURL command and extracts auth headers.
func ParseCurlFile(path string) (AuthHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts -H headers and the cookie (-b or a Cookie header) from a cURL command.
//
// The cookie is stored under the "cookie" key, which is the name ytmusicapi looks for.
func ParseCurlCommand(cmd string) (AuthHeaders, error) {
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	headers := make(AuthHeaders)
	var headerCookie string

	for _, match := range curlHeaderRe.FindAllStringSubmatch(cmd, -1) {
		name, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		if strings.EqualFold(name, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		headers[name] = value
	}

	cookie := headerCookie
	if m := curlCookieRe.FindStringSubmatch(cmd); m != nil {
		cookie = firstGroup(m)
	}
	if cookie != "" {
		headers["cookie"] = cookie
	}

	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidCredentials)
	}
	return headers, nil
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
