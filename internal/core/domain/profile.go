package domain

// Profile is the saved form state. AppSecret is only persisted on request.
type Profile struct {
	AppKey       string   `json:"app_key"`
	AppSecret    string   `json:"app_secret,omitempty"`
	DeviceSerial string   `json:"device_serial"`
	Channel      int      `json:"channel"`
	Protocol     Protocol `json:"protocol"`
	Quality      Quality  `json:"quality"`
	ExpireTime   int      `json:"expire_time"`
}

func DefaultProfile() Profile {
	req := DefaultStreamRequest()
	return Profile{
		DeviceSerial: req.DeviceSerial,
		Channel:      req.Channel,
		Protocol:     req.Protocol,
		Quality:      req.Quality,
		ExpireTime:   req.ExpireSeconds,
	}
}

// StreamRequest returns live request parameters seeded from the profile.
func (p Profile) StreamRequest() StreamRequest {
	req := DefaultStreamRequest()
	req.DeviceSerial = p.DeviceSerial
	req.Channel = p.Channel
	req.Protocol = p.Protocol
	req.Quality = p.Quality
	req.ExpireSeconds = p.ExpireTime
	return req
}

func (p Profile) Credentials() Credentials {
	return NewCredentials(p.AppKey, p.AppSecret)
}
