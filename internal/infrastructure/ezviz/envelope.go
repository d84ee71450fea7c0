package ezviz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// envelope is the common response wrapper of the open API.
type envelope struct {
	Code looseString     `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
	Page *pageInfo       `json:"page"`
}

type pageInfo struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

type tokenData struct {
	AccessToken string     `json:"accessToken"`
	AreaDomain  string     `json:"areaDomain"`
	ExpireTime  looseInt64 `json:"expireTime"`
}

type addressData struct {
	URL        string      `json:"url"`
	ID         looseString `json:"id"`
	ExpireTime looseString `json:"expireTime"`
}

type deviceData struct {
	DeviceSerial  string `json:"deviceSerial"`
	DeviceName    string `json:"deviceName"`
	DeviceType    string `json:"deviceType"`
	Status        int    `json:"status"`
	Defence       int    `json:"defence"`
	DeviceVersion string `json:"deviceVersion"`
}

// looseString accepts a JSON string, number or null. The API is not
// consistent about quoting codes and ids.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = looseString(n.String())
	return nil
}

// looseInt64 accepts a JSON number or a numeric string.
type looseInt64 int64

func (n *looseInt64) UnmarshalJSON(data []byte) error {
	var s looseString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return fmt.Errorf("expected integer, got %q", string(s))
	}
	*n = looseInt64(v)
	return nil
}
