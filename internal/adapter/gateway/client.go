package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

// TimeoutTier selects the per-call deadline. The authentication tier is
// longer because the gateway may itself be waiting on the third-party
// authentication service.
type TimeoutTier int

const (
	TierDefault TimeoutTier = iota
	TierAuthentication
)

const (
	defaultCallTimeout = 60 * time.Second
	authCallTimeout    = 90 * time.Second
)

// TimeoutError is the distinguished expiry error. It carries the original
// payload because the caller must build the reversal from that exact
// payload, not a fresh one.
type TimeoutError struct {
	Request *TransactionRequest
	Err     error
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("gateway call timed out (trace %s): %v", e.Request.TraceNo, e.Err)
}

func (e TimeoutError) Unwrap() error { return e.Err }

// HTTPError represents a non-2xx reply from the gateway host.
type HTTPError struct {
	Status int
	Body   string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("gateway http error: status %d: %s", e.Status, e.Body)
}

// Client exposes the single operation the orchestrator needs.
type Client interface {
	Call(ctx context.Context, req *TransactionRequest, tier TimeoutTier) (*TransactionResponse, error)
}

// Credentials is the merchant identity attached to every call.
type Credentials struct {
	GatewayIP  string
	ServerIP   string
	MerchantID string
	SecretKey  string
}

// HTTPClient implements Client against the processor's HTTP endpoint.
type HTTPClient struct {
	endpoint    *url.URL
	creds       Credentials
	httpClient  *http.Client
	defaultWait time.Duration
	authWait    time.Duration
	logger      *slog.Logger
}

// NewHTTPClient validates the endpoint and builds the client. Deadlines
// are enforced per call, not on the underlying http.Client, so that an
// expiry is distinguishable from other transport failures.
func NewHTTPClient(endpoint string, creds Credentials, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	return &HTTPClient{
		endpoint:    parsed,
		creds:       creds,
		httpClient:  &http.Client{},
		defaultWait: defaultCallTimeout,
		authWait:    authCallTimeout,
		logger:      logger,
	}, nil
}

// Call serializes the payload, attaches identity headers and posts it
// once. On expiry it returns TimeoutError carrying the payload; non-2xx
// replies raise HTTPError with status and body.
func (c *HTTPClient) Call(ctx context.Context, req *TransactionRequest, tier TimeoutTier) (*TransactionResponse, error) {
	wait := c.defaultWait
	if tier == TierAuthentication {
		wait = c.authWait
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Client-IP", req.ClientIP)
	httpReq.Header.Set("X-Gateway-IP", c.creds.GatewayIP)
	httpReq.Header.Set("X-Server-IP", c.creds.ServerIP)
	httpReq.Header.Set("X-Merchant-Id", c.creds.MerchantID)
	httpReq.Header.Set("X-Merchant-Key", c.creds.SecretKey)

	c.logger.Info("gateway request",
		slog.String("messageType", req.MessageType),
		slog.String("trace", req.TraceNo),
		slog.String("pan", RedactPAN(req.PAN)),
		slog.String("amount", req.AmountTrans),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(callCtx, err) {
			return nil, TimeoutError{Request: req, Err: err}
		}
		return nil, fmt.Errorf("gateway transport: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(callCtx, err) {
			return nil, TimeoutError{Request: req, Err: err}
		}
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("gateway request failed",
			slog.Int("status", resp.StatusCode),
			slog.String("trace", req.TraceNo),
		)
		return nil, HTTPError{Status: resp.StatusCode, Body: string(raw)}
	}

	var data TransactionResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	data.Raw = raw

	c.logger.Info("gateway response",
		slog.String("trace", req.TraceNo),
		slog.String("code", data.ResponseCode),
		slog.String("operation", data.OperationType),
	)
	return &data, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// RedactPAN keeps only the last four digits for logging.
func RedactPAN(pan string) string {
	if pan == "" {
		return ""
	}
	if len(pan) <= 4 {
		return "****"
	}
	return "****" + pan[len(pan)-4:]
}
