// Package receipt delivers confirmed bookings to the receipt webhook.
package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/m3rciful/tosbook/core/logger"
	coretelegram "github.com/m3rciful/tosbook/core/telegram"
	"github.com/m3rciful/tosbook/core/telegram/netutil"
	"github.com/m3rciful/tosbook/internal/booking"
)

// HeaderDeliveryID carries a unique id per delivery attempt.
const HeaderDeliveryID = "X-Delivery-ID"

const defaultTimeout = 10 * time.Second

// ErrStatus matches every non-2xx webhook response.
var ErrStatus = errors.New("receipt: unexpected status")

// StatusError reports the status code of a rejected delivery.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("receipt: webhook responded %d %s", e.Code, http.StatusText(e.Code))
}

// StatusCode returns the HTTP status.
func (e *StatusError) StatusCode() int { return e.Code }

// Is makes errors.Is(err, ErrStatus) hold.
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

type deliveryIDKey struct{}

// WithDeliveryID makes Dispatch reuse id for the X-Delivery-ID header.
func WithDeliveryID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deliveryIDKey{}, id)
}

// DeliveryIDFrom returns the delivery id stored by WithDeliveryID.
func DeliveryIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(deliveryIDKey{}).(string)
	return id
}

// Options configures a Client.
type Options struct {
	URL     string
	Timeout time.Duration
	// HTTPClient overrides the default client built without retries.
	HTTPClient *http.Client
}

// Client posts booking records to the webhook. Each Dispatch makes exactly
// one request.
type Client struct {
	url   string
	http  *http.Client
	newID func() string
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("receipt: invalid webhook url %q", opts.URL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = coretelegram.BuildHTTPClient(coretelegram.HTTPClientOptions{Timeout: timeout})
	}
	return &Client{url: u.String(), http: hc, newID: uuid.NewString}, nil
}

// Dispatch sends rec as JSON. Any transport error or non-2xx status is a failure.
func (c *Client) Dispatch(ctx context.Context, sessionID int64, rec booking.Record) error {
	start := time.Now()
	id := DeliveryIDFrom(ctx)
	if id == "" {
		id = c.newID()
	}
	code, err := c.post(ctx, id, rec)

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("delivery_id", id),
		slog.Int64("session_id", sessionID),
		slog.Duration("duration", logger.Took(start)),
	}
	if code != 0 {
		attrs = append(attrs, slog.Int("http_code", code))
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", err.Error()),
			slog.String("err_kind", netutil.Classify(err)),
		)
		logger.Warn(ctx, logger.CompReceipt, "receipt.post", attrs...)
		return err
	}
	logger.Info(ctx, logger.CompReceipt, "receipt.post", attrs...)
	return nil
}

func (c *Client) post(ctx context.Context, id string, rec booking.Record) (int, error) {
	body, err := sonic.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("receipt: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("receipt: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderDeliveryID, id)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("receipt: post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &StatusError{Code: resp.StatusCode}
	}
	return resp.StatusCode, nil
}
