package clients

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sethgrid/pester"
	"github.com/ujwegh/bookmart/internal/app/config"
	"github.com/ujwegh/bookmart/internal/app/logger"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

type (
	// NotificationClient delivers outbox events to the external
	// notification gateway.
	NotificationClient interface {
		Send(message *NotificationMessage) error
	}
	NotificationClientImpl struct {
		ServiceURL   string
		pesterClient *pester.Client
		rateLimiter  ratelimit.Limiter
	}
	NotificationMessage struct {
		UserUUID string              `json:"user_uuid,omitempty"`
		Role     string              `json:"role,omitempty"`
		Type     string              `json:"type"`
		Payload  jsoniter.RawMessage `json:"payload"`
	}
	LoggingRoundTripper struct {
		Proxied http.RoundTripper
	}
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func NewNotificationClient(c config.AppConfig) *NotificationClientImpl {
	ratePerSecond := c.NotificationMaxRequestsPerMinute / 1

	rateLimiter := ratelimit.New(ratePerSecond)
	pesterClient := pester.New()

	pesterClient.Concurrency = 1 // Since we are rate-limiting, concurrency should be 1
	pesterClient.MaxRetries = 0
	pesterClient.KeepLog = true
	pesterClient.Timeout = time.Duration(c.NotificationRequestTimeoutSec) * time.Second
	pesterClient.RetryOnHTTP429 = false
	pesterClient.Transport = &LoggingRoundTripper{Proxied: http.DefaultTransport}

	return &NotificationClientImpl{
		ServiceURL:   c.NotificationGatewayAddress,
		pesterClient: pesterClient,
		rateLimiter:  rateLimiter,
	}
}

func (nc *NotificationClientImpl) Send(message *NotificationMessage) error {
	// Wait for the next available opportunity to send a request
	nc.rateLimiter.Take()

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("error marshalling notification: %w", err)
	}
	resp, err := nc.pesterClient.Post(nc.ServiceURL+"/api/notifications", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("notification gateway responded with status %d", resp.StatusCode)
	}
	return nil
}

func (nc *LoggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	logRequest(r)
	response, err := nc.Proxied.RoundTrip(r)
	if err != nil {
		logger.Log.Error("notification request error", zap.Error(err))
		return nil, err
	}
	logResponse(response)
	return response, nil
}

func logResponse(response *http.Response) {
	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		logger.Log.Error("notification response error", zap.Error(err))
		return
	}
	response.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	body := string(bodyBytes)
	if len(body) == 0 {
		body = "empty body"
	}

	logger.Log.Info("NOTIFICATION RESPONSE:",
		zap.Int("Status", response.StatusCode),
		zap.Int64("Content-Length", response.ContentLength),
		zap.String("Body", body),
	)
}

func logRequest(r *http.Request) {
	bodyMsg, err := getRequestBodyForLogging(r)
	if err != nil {
		logger.Log.Error("notification log request error", zap.Error(err))
		return
	}
	logger.Log.Info("NOTIFICATION REQUEST:",
		zap.String("Method", r.Method),
		zap.String("Path", r.URL.String()),
		zap.String("Body", bodyMsg),
	)
}

func getRequestBodyForLogging(r *http.Request) (string, error) {
	if r.Body == nil || r.ContentLength == 0 {
		return "empty body", nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("error reading request body: %w", err)
	}
	defer r.Body.Close()
	r.Body = io.NopCloser(bytes.NewBuffer(body))
	return string(body), nil
}
