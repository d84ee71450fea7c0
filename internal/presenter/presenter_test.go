package presenter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"ezstream/internal/core/domain"
	apperrors "ezstream/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestStream_Success(t *testing.T) {
	result := &domain.StreamResult{
		Code:       "200",
		URL:        "https://open.ezvizlife.com/v3/openlive/FG3451360_1_1.m3u8",
		ID:         "abc123",
		ExpireTime: "2024-05-01 12:00:00",
		Raw:        []byte(`{"code":"200","msg":"Operation succeeded","data":{"id":"abc123"}}`),
	}

	want := "Stream URL Generated Successfully!\n\n" +
		"URL: https://open.ezvizlife.com/v3/openlive/FG3451360_1_1.m3u8\n\n" +
		"Stream ID: abc123\n" +
		"Expires at: 2024-05-01 12:00:00\n\n" +
		strings.Repeat("=", 50) + "\n" +
		"Full Response:\n" +
		"{\n  \"code\": \"200\",\n  \"msg\": \"Operation succeeded\",\n  \"data\": {\n    \"id\": \"abc123\"\n  }\n}"

	assert.Equal(t, want, Stream(result))
	assert.Equal(t, result.URL, CopyableURL(result))
}

func TestStream_SuccessWithMissingFields(t *testing.T) {
	result := &domain.StreamResult{Code: "200", Raw: []byte(`{"code":"200"}`)}

	text := Stream(result)
	assert.Contains(t, text, "URL: No URL in response\n")
	assert.Contains(t, text, "Stream ID: Unknown\n")
	assert.Contains(t, text, "Expires at: Unknown\n")
}

func TestStream_Error(t *testing.T) {
	result := &domain.StreamResult{
		Code:    "20007",
		Message: "Device offline",
		URL:     "ignored",
		Raw:     []byte(`{"code":"20007","msg":"Device offline"}`),
	}

	want := "Error 20007: Device offline\n\nFull Response:\n{\n  \"code\": \"20007\",\n  \"msg\": \"Device offline\"\n}"
	assert.Equal(t, want, Stream(result))
	assert.Empty(t, CopyableURL(result))
}

func TestStreamError_Defaults(t *testing.T) {
	assert.Equal(t, "Error Unknown: Unknown error", StreamError(&domain.StreamResult{}))
}

func TestFullResponse(t *testing.T) {
	assert.Equal(t, "{}", FullResponse(nil))
	assert.Equal(t, "not json", FullResponse([]byte("not json")))
}

func TestAuthMessages(t *testing.T) {
	session := &domain.Session{
		AreaDomain: "https://isgpopen.ezvizlife.com",
		ExpiresAt:  time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC),
	}
	assert.Equal(t,
		"Authenticated successfully!\nArea Domain: https://isgpopen.ezvizlife.com\nExpires at: 2024-05-08T10:00:00Z",
		AuthSuccess(session))

	assert.Equal(t, "Failed to authenticate: appKey not exist",
		AuthFailure(apperrors.NewUpstreamRejectedError("10017", "appKey not exist")))
	assert.Equal(t, "Failed to authenticate: Authentication failed",
		AuthFailure(apperrors.NewUpstreamRejectedError("10017", "")))
}

func TestTransportErrorAndTitle(t *testing.T) {
	assert.Equal(t, "Error: dial tcp: i/o timeout", TransportError(errors.New("dial tcp: i/o timeout")))

	title, rest := Title("Error 1: x\n\nFull Response:")
	assert.Equal(t, "Error 1: x", title)
	assert.Equal(t, "\nFull Response:", rest)
}
