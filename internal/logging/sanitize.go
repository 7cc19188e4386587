// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package logging

import "strings"

// SanitizeToken masks a token, showing only the first and last 4 characters.
// Example: "a1b2c3d4e5f6g7h8i9" -> "a1b2...h8i9"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeBody truncates a response body for inclusion in log lines and
// masks anything that looks like an access token field.
func SanitizeBody(body string, maxLen int) string {
	if strings.Contains(strings.ToLower(body), "access_token") {
		return "[redacted token response]"
	}
	if maxLen > 0 && len(body) > maxLen {
		return body[:maxLen] + "..."
	}
	return body
}
