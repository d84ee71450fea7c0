package domain

import "ezstream/pkg/utils"

type Credentials struct {
	AppKey    string
	AppSecret string
}

// NewCredentials drops surrounding whitespace and control characters picked
// up when keys are pasted from the developer console.
func NewCredentials(appKey, appSecret string) Credentials {
	return Credentials{
		AppKey:    utils.SanitizeString(appKey),
		AppSecret: utils.SanitizeString(appSecret),
	}
}
