package ezviz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"
	apperrors "ezstream/pkg/errors"
	"ezstream/pkg/tracing"
	"ezstream/pkg/utils"

	"go.uber.org/zap"
)

const (
	DefaultAuthURL = "https://open.ezvizlife.com"

	tokenPath       = "/api/lapp/token/get"
	liveAddressPath = "/api/lapp/live/address/get"
	deviceListPath  = "/api/lapp/device/list"

	maxResponseBytes = 1 << 20
	maxLoggedBody    = 256
)

// Endpoint names used for spans and metrics.
const (
	EndpointToken       = "token.get"
	EndpointLiveAddress = "live.address.get"
	EndpointDeviceList  = "device.list"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Client talks to the open API. Each call is one POST with no retry.
type Client struct {
	authURL string
	http    *http.Client
	metrics ports.VendorMetrics
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithMetrics(m ports.VendorMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(authURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		authURL: strings.TrimRight(authURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.Gateway = (*Client)(nil)

func (c *Client) GetAccessToken(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	form := url.Values{}
	form.Set("appKey", creds.AppKey)
	form.Set("appSecret", creds.AppSecret)

	env, _, err := c.post(ctx, EndpointToken, c.authURL, tokenPath, form)
	if err != nil {
		return nil, err
	}
	if string(env.Code) != domain.SuccessCode {
		msg := env.Msg
		if msg == "" {
			msg = "Authentication failed"
		}
		return nil, apperrors.NewUpstreamRejectedError(string(env.Code), msg)
	}

	var data tokenData
	if err := decodeData(env, &data); err != nil {
		return nil, apperrors.NewBadGatewayError(fmt.Errorf("invalid token response: %w", err))
	}
	if data.AccessToken == "" || data.AreaDomain == "" {
		return nil, apperrors.NewBadGatewayError(fmt.Errorf("token response is missing accessToken or areaDomain"))
	}

	session := &domain.Session{
		AccessToken: data.AccessToken,
		AreaDomain:  strings.TrimRight(data.AreaDomain, "/"),
		CreatedAt:   utils.Now(),
	}
	if data.ExpireTime > 0 {
		session.ExpiresAt = time.UnixMilli(int64(data.ExpireTime))
	}
	return session, nil
}

func (c *Client) GetStreamAddress(ctx context.Context, session *domain.Session, req domain.StreamRequest) (*domain.StreamResult, error) {
	form := url.Values{}
	form.Set("accessToken", session.AccessToken)
	for k, v := range req.FormValues() {
		form.Set(k, v)
	}

	env, body, err := c.post(ctx, EndpointLiveAddress, session.AreaDomain, liveAddressPath, form)
	if err != nil {
		return nil, err
	}

	result := &domain.StreamResult{
		Code:       string(env.Code),
		Message:    env.Msg,
		Raw:        json.RawMessage(body),
		ReceivedAt: utils.Now(),
	}
	if !result.Success() || !hasData(env) {
		return result, nil
	}

	var data addressData
	if err := decodeData(env, &data); err != nil {
		return nil, apperrors.NewBadGatewayError(fmt.Errorf("invalid live address response: %w", err))
	}
	result.URL = data.URL
	result.ID = string(data.ID)
	result.ExpireTime = string(data.ExpireTime)
	return result, nil
}

func (c *Client) ListDevices(ctx context.Context, session *domain.Session, pageStart, pageSize int) (*domain.DevicePage, error) {
	form := url.Values{}
	form.Set("accessToken", session.AccessToken)
	form.Set("pageStart", strconv.Itoa(pageStart))
	form.Set("pageSize", strconv.Itoa(pageSize))

	env, _, err := c.post(ctx, EndpointDeviceList, session.AreaDomain, deviceListPath, form)
	if err != nil {
		return nil, err
	}
	if string(env.Code) != domain.SuccessCode {
		msg := env.Msg
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, apperrors.NewUpstreamRejectedError(string(env.Code), msg)
	}

	var items []deviceData
	if hasData(env) {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, apperrors.NewBadGatewayError(fmt.Errorf("invalid device list response: %w", err))
		}
	}

	page := &domain.DevicePage{Devices: make([]domain.Device, 0, len(items))}
	for _, d := range items {
		page.Devices = append(page.Devices, domain.Device{
			Serial:  d.DeviceSerial,
			Name:    d.DeviceName,
			Type:    d.DeviceType,
			Online:  d.Status == 1,
			Defence: d.Defence,
			Version: d.DeviceVersion,
		})
	}
	if env.Page != nil {
		page.Page = domain.PageInfo{Total: env.Page.Total, Page: env.Page.Page, Size: env.Page.Size}
	} else {
		page.Page = domain.PageInfo{Total: len(items), Page: pageStart, Size: pageSize}
	}
	return page, nil
}

// post sends a form-encoded request and decodes the envelope. The HTTP status
// is not checked: the API reports failures through the envelope code.
func (c *Client) post(ctx context.Context, endpoint, baseURL, path string, form url.Values) (*envelope, []byte, error) {
	target := strings.TrimRight(baseURL, "/") + path
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil, nil, apperrors.NewBadGatewayError(fmt.Errorf("invalid API address %q", baseURL))
	}

	ctx, span := tracing.TraceVendorCall(ctx, endpoint, u.Host)
	defer span.End()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		c.observe(endpoint, OutcomeError, start)
		return nil, nil, apperrors.NewBadGatewayError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		tracing.RecordError(ctx, err)
		c.observe(endpoint, OutcomeError, start)
		c.logger.Warn("vendor request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, nil, apperrors.NewBadGatewayError(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		tracing.RecordError(ctx, err)
		c.observe(endpoint, OutcomeError, start)
		return nil, nil, apperrors.NewBadGatewayError(fmt.Errorf("failed to read response: %w", err))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		err = fmt.Errorf("invalid JSON response (HTTP %d): %w", res.StatusCode, err)
		tracing.RecordError(ctx, err)
		c.observe(endpoint, OutcomeError, start)
		c.logger.Warn("vendor response is not JSON",
			zap.String("endpoint", endpoint),
			zap.Int("http_status", res.StatusCode),
			zap.String("body", utils.TruncateString(string(body), maxLoggedBody)),
		)
		return nil, nil, apperrors.NewBadGatewayError(err)
	}

	tracing.AddSpanAttributes(ctx, tracing.VendorCodeKey.String(string(env.Code)))
	outcome := OutcomeSuccess
	if string(env.Code) != domain.SuccessCode {
		outcome = OutcomeRejected
	}
	c.observe(endpoint, outcome, start)
	c.logger.Debug("vendor response",
		zap.String("endpoint", endpoint),
		zap.Int("http_status", res.StatusCode),
		zap.String("code", string(env.Code)),
		zap.Duration("took", time.Since(start)),
	)
	return &env, body, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveVendorCall(endpoint, outcome, time.Since(start))
	}
}

func hasData(env *envelope) bool {
	return len(env.Data) > 0 && string(env.Data) != "null"
}

func decodeData(env *envelope, v interface{}) error {
	if !hasData(env) {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(env.Data, v)
}
