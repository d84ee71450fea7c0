// Package presenter renders authentication and stream results as the text
// shown to users by the CLI and returned by the local API.
package presenter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"ezstream/internal/core/domain"
	"ezstream/pkg/errors"
	"ezstream/pkg/utils"
)

const (
	AuthSuccessTitle   = "Authenticated successfully!"
	AuthFailureTitle   = "Authentication failed"
	StreamSuccessTitle = "Stream URL Generated Successfully!"

	unknown      = "Unknown"
	unknownError = "Unknown error"
	noURL        = "No URL in response"
)

var separator = strings.Repeat("=", 50)

// AuthSuccess describes a fresh session.
func AuthSuccess(session *domain.Session) string {
	expires := unknown
	if !session.ExpiresAt.IsZero() {
		expires = utils.FormatTimestamp(session.ExpiresAt)
	}
	return fmt.Sprintf("%s\nArea Domain: %s\nExpires at: %s", AuthSuccessTitle, session.AreaDomain, expires)
}

func AuthFailure(err error) string {
	msg := errors.UserMessage(err)
	if msg == "" {
		msg = AuthFailureTitle
	}
	return "Failed to authenticate: " + msg
}

// Stream renders a vendor answer to a stream address request, accepted or
// not. The full response is always appended.
func Stream(result *domain.StreamResult) string {
	var b strings.Builder

	if result.Success() {
		b.WriteString(StreamSuccessTitle + "\n\n")
		b.WriteString("URL: " + orDefault(result.URL, noURL) + "\n\n")
		b.WriteString("Stream ID: " + orDefault(result.ID, unknown) + "\n")
		b.WriteString("Expires at: " + orDefault(result.ExpireTime, unknown) + "\n\n")
		b.WriteString(separator + "\n")
	} else {
		b.WriteString(StreamError(result) + "\n\n")
	}

	b.WriteString("Full Response:\n")
	b.WriteString(FullResponse(result.Raw))
	return b.String()
}

// StreamError is the one-line summary of a rejected request.
func StreamError(result *domain.StreamResult) string {
	return fmt.Sprintf("Error %s: %s", orDefault(result.Code, unknown), orDefault(result.Message, unknownError))
}

// TransportError renders a failure that produced no vendor answer at all.
func TransportError(err error) string {
	return "Error: " + errors.UserMessage(err)
}

// CopyableURL is the URL a user may copy, empty unless the request succeeded.
func CopyableURL(result *domain.StreamResult) string {
	if !result.Success() {
		return ""
	}
	return result.URL
}

// FullResponse pretty-prints a raw vendor body with 2-space indentation.
// Bodies that are not JSON are returned unchanged.
func FullResponse(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}

// Title is the first line of a rendered text, used for coloring.
func Title(text string) (title, rest string) {
	title, rest, _ = strings.Cut(text, "\n")
	return title, rest
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
