package domain

type Device struct {
	Serial  string `json:"device_serial"`
	Name    string `json:"device_name"`
	Type    string `json:"device_type"`
	Online  bool   `json:"online"`
	Defence int    `json:"defence"`
	Version string `json:"version"`
}

type PageInfo struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

type DevicePage struct {
	Devices []Device `json:"devices"`
	Page    PageInfo `json:"page"`
}

const (
	DefaultPageSize = 10
)
