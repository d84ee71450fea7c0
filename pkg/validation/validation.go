package validation

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// PlaybackTimeLayout is the timestamp form the live address API accepts for
// startTime/stopTime.
const PlaybackTimeLayout = "2006-01-02 15:04:05"

const (
	MinExpireSeconds = 30
	MaxExpireSeconds = 86400
	MaxPageSize      = 50

	MaxAppKeyLength       = 64
	MaxAppSecretLength    = 128
	MaxDeviceSerialLength = 64
)

// ValidateAppKey validates the application key issued by the open platform.
// Its format is left to the platform.
func ValidateAppKey(appKey string) error {
	return ValidateStringLength(strings.TrimSpace(appKey), 1, MaxAppKeyLength, "app key")
}

// ValidateAppSecret validates the application secret
func ValidateAppSecret(secret string) error {
	return ValidateStringLength(strings.TrimSpace(secret), 1, MaxAppSecretLength, "app secret")
}

// ValidateDeviceSerial validates device serial
func ValidateDeviceSerial(serial string) error {
	return ValidateStringLength(strings.TrimSpace(serial), 1, MaxDeviceSerialLength, "device serial")
}

// ValidateChannel validates channel number
func ValidateChannel(channel int) error {
	if channel < 1 {
		return fmt.Errorf("channel number must be at least 1")
	}
	if channel > 256 {
		return fmt.Errorf("channel number is too high (max 256)")
	}
	return nil
}

// ValidateExpireSeconds validates the requested URL lifetime
func ValidateExpireSeconds(seconds int) error {
	if seconds < MinExpireSeconds {
		return fmt.Errorf("expire time must be at least %d seconds", MinExpireSeconds)
	}
	if seconds > MaxExpireSeconds {
		return fmt.Errorf("expire time is too long (max %d seconds)", MaxExpireSeconds)
	}
	return nil
}

// ParsePlaybackTime parses a playback boundary in PlaybackTimeLayout.
func ParsePlaybackTime(s, fieldName string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%s is required for playback", fieldName)
	}
	t, err := time.ParseInLocation(PlaybackTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must look like %q", fieldName, PlaybackTimeLayout)
	}
	return t, nil
}

// ValidatePlaybackWindow validates the start/stop pair of a playback request
func ValidatePlaybackWindow(start, stop string) error {
	startAt, err := ParsePlaybackTime(start, "start time")
	if err != nil {
		return err
	}
	stopAt, err := ParsePlaybackTime(stop, "stop time")
	if err != nil {
		return err
	}
	if stopAt.Before(startAt) {
		return fmt.Errorf("stop time must not be before start time")
	}
	return nil
}

// ValidatePageSize validates a device list page size
func ValidatePageSize(size int) error {
	if size < 1 {
		return fmt.Errorf("page size must be at least 1")
	}
	if size > MaxPageSize {
		return fmt.Errorf("page size is too large (max %d)", MaxPageSize)
	}
	return nil
}

// ValidateURL validates URL format
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme (must be http or https)")
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateStringLength validates string length
func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length == 0 && min > 0 {
		return fmt.Errorf("%s is required", fieldName)
	}
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}
