package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ezstream/pkg/utils"
)

type Protocol int

const (
	ProtocolEzopen Protocol = 1
	ProtocolHLS    Protocol = 2
	ProtocolRTMP   Protocol = 3
	ProtocolFLV    Protocol = 4
)

var protocolNames = map[Protocol]string{
	ProtocolEzopen: "ezopen",
	ProtocolHLS:    "HLS",
	ProtocolRTMP:   "RTMP",
	ProtocolFLV:    "FLV",
}

type Quality int

const (
	QualityHD     Quality = 1
	QualityFluent Quality = 2
)

var qualityNames = map[Quality]string{
	QualityHD:     "HD (Main)",
	QualityFluent: "Fluent (Sub)",
}

type StreamType string

const (
	StreamTypeLive     StreamType = "live"
	StreamTypePlayback StreamType = "playback"
)

const (
	DefaultChannel       = 1
	DefaultExpireSeconds = 3600
	DefaultDeviceSerial  = "FG3451360"

	// playbackType is the vendor "type" value for local recording playback.
	playbackType = "2"
)

// StreamRequest holds the parameters of a live address request.
type StreamRequest struct {
	DeviceSerial  string     `json:"device_serial"`
	Channel       int        `json:"channel"`
	Protocol      Protocol   `json:"protocol"`
	Quality       Quality    `json:"quality"`
	ExpireSeconds int        `json:"expire_time"`
	Type          StreamType `json:"type"`
	StartTime     string     `json:"start_time,omitempty"`
	StopTime      string     `json:"stop_time,omitempty"`
}

func DefaultStreamRequest() StreamRequest {
	return StreamRequest{
		DeviceSerial:  DefaultDeviceSerial,
		Channel:       DefaultChannel,
		Protocol:      ProtocolHLS,
		Quality:       QualityHD,
		ExpireSeconds: DefaultExpireSeconds,
		Type:          StreamTypeLive,
	}
}

func (r StreamRequest) IsPlayback() bool {
	return r.Type == StreamTypePlayback
}

// FormValues builds the vendor form fields, without the access token.
func (r StreamRequest) FormValues() map[string]string {
	fields := map[string]string{
		"deviceSerial": strings.TrimSpace(r.DeviceSerial),
		"channelNo":    strconv.Itoa(r.Channel),
		"protocol":     strconv.Itoa(int(r.Protocol)),
		"quality":      strconv.Itoa(int(r.Quality)),
		"expireTime":   strconv.Itoa(r.ExpireSeconds),
	}
	if r.IsPlayback() {
		fields["type"] = playbackType
		fields["startTime"] = r.StartTime
		fields["stopTime"] = r.StopTime
	}
	return fields
}

// StreamResult is a parsed live address response. Code and Message are kept
// verbatim so a rejected request can be shown as the vendor sent it.
type StreamResult struct {
	Code       string          `json:"code"`
	Message    string          `json:"msg,omitempty"`
	URL        string          `json:"url,omitempty"`
	ID         string          `json:"id,omitempty"`
	ExpireTime string          `json:"expire_time,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

func (r *StreamResult) Success() bool {
	return r != nil && r.Code == SuccessCode
}

// SuccessCode is the application-level code of an accepted vendor request.
const SuccessCode = "200"

func (p Protocol) Valid() bool {
	_, ok := protocolNames[p]
	return ok
}

func (p Protocol) Name() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}
	return "unknown"
}

// Label is the form label, e.g. "2 - HLS".
func (p Protocol) Label() string {
	return fmt.Sprintf("%d - %s", int(p), p.Name())
}

func (p Protocol) String() string {
	return p.Label()
}

// Set implements pflag.Value.
func (p *Protocol) Set(s string) error {
	parsed, err := ParseProtocol(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p *Protocol) Type() string {
	return "protocol"
}

func (p Protocol) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Label())
}

func (p *Protocol) UnmarshalJSON(data []byte) error {
	s, err := labelOrNumber(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProtocol, err)
	}
	return p.Set(s)
}

// ParseProtocol accepts a form label ("2 - HLS"), a bare number or a name.
func ParseProtocol(s string) (Protocol, error) {
	n, ok := leadingNumber(s)
	if !ok {
		for p, name := range protocolNames {
			if strings.EqualFold(name, strings.TrimSpace(s)) {
				return p, nil
			}
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidProtocol, s)
	}
	p := Protocol(n)
	if !p.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidProtocol, s)
	}
	return p, nil
}

func (q Quality) Valid() bool {
	_, ok := qualityNames[q]
	return ok
}

func (q Quality) Name() string {
	if name, ok := qualityNames[q]; ok {
		return name
	}
	return "unknown"
}

// Label is the form label, e.g. "1 - HD (Main)".
func (q Quality) Label() string {
	return fmt.Sprintf("%d - %s", int(q), q.Name())
}

func (q Quality) String() string {
	return q.Label()
}

// Set implements pflag.Value.
func (q *Quality) Set(s string) error {
	parsed, err := ParseQuality(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

func (q *Quality) Type() string {
	return "quality"
}

func (q Quality) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Label())
}

func (q *Quality) UnmarshalJSON(data []byte) error {
	s, err := labelOrNumber(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuality, err)
	}
	return q.Set(s)
}

// ParseQuality accepts a form label ("1 - HD (Main)"), a bare number, "hd" or "fluent".
func ParseQuality(s string) (Quality, error) {
	n, ok := leadingNumber(s)
	if !ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "hd", "main":
			return QualityHD, nil
		case "fluent", "sub":
			return QualityFluent, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
	}
	q := Quality(n)
	if !q.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
	}
	return q, nil
}

func ParseStreamType(s string) (StreamType, error) {
	switch StreamType(strings.ToLower(strings.TrimSpace(s))) {
	case "", StreamTypeLive:
		return StreamTypeLive, nil
	case StreamTypePlayback:
		return StreamTypePlayback, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStreamType, s)
}

func (t *StreamType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStreamType, err)
	}
	parsed, err := ParseStreamType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// leadingNumber parses the first field of a form label as an int.
func leadingNumber(s string) (int, bool) {
	n, err := strconv.Atoi(utils.FirstField(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

func labelOrNumber(data []byte) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
