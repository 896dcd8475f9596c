package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"feedsync/internal/domain"
	"feedsync/internal/infra/telemetry"
)

const (
	pathList        = "/notifications/"
	pathUnreadCount = "/notifications/unread-count"
	pathMarkRead    = "/notifications/mark-read"
	pathMarkAllRead = "/notifications/mark-all-read"
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	Tokens  domain.TokenSource
	Metrics domain.Metrics
	Logger  *zap.Logger
}

// Client talks to the notification backend over HTTP. Every request carries
// the current session token as a bearer credential.
type Client struct {
	http    *resty.Client
	tokens  domain.TokenSource
	metrics domain.Metrics
	logger  *zap.Logger
}

type errorBody struct {
	Detail any `json:"detail"`
}

type markReadBody struct {
	NotificationIDs []string `json:"notification_ids"`
}

func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api base url is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultAPITimeoutSeconds) * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}

	httpClient := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    httpClient,
		tokens:  opts.Tokens,
		metrics: metrics,
		logger:  logger.Named("api"),
	}, nil
}

func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) ListNotifications(ctx context.Context, filter domain.ListFilter) (*domain.ListResult, error) {
	var out domain.ListResult
	err := c.do(ctx, "list", func(req *resty.Request) (*resty.Response, error) {
		req.SetQueryParam("limit", strconv.Itoa(filter.Limit)).
			SetQueryParam("offset", strconv.Itoa(filter.Offset)).
			SetResult(&out)
		if filter.UnreadOnly {
			req.SetQueryParam("unread_only", "true")
		}
		return req.Get(pathList)
	})
	if err != nil {
		return nil, err
	}
	if out.Notifications == nil {
		out.Notifications = []domain.Notification{}
	}
	return &out, nil
}

func (c *Client) UnreadCount(ctx context.Context) (*domain.CountResult, error) {
	var out domain.CountResult
	err := c.do(ctx, "unread_count", func(req *resty.Request) (*resty.Response, error) {
		return req.SetResult(&out).Get(pathUnreadCount)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkRead(ctx context.Context, ids []string) (*domain.MarkReadResult, error) {
	var out domain.MarkReadResult
	err := c.do(ctx, "mark_read", func(req *resty.Request) (*resty.Response, error) {
		return req.SetBody(markReadBody{NotificationIDs: ids}).SetResult(&out).Post(pathMarkRead)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkAllRead(ctx context.Context) (*domain.MarkReadResult, error) {
	var out domain.MarkReadResult
	err := c.do(ctx, "mark_all_read", func(req *resty.Request) (*resty.Response, error) {
		return req.SetResult(&out).Post(pathMarkAllRead)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op string, send func(req *resty.Request) (*resty.Response, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	qualified := "api." + op
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token == "" {
		return domain.E(domain.CodeUnauthenticated, qualified, "", domain.ErrNoToken)
	}

	ctx, meta := telemetry.WithRequest(ctx)
	logger := c.logger.With(meta.Fields()...)

	var apiErr errorBody
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader(telemetry.RequestIDHeader, meta.RequestID).
		SetError(&apiErr)

	started := time.Now()
	resp, err := send(req)
	if err == nil && resp.IsError() {
		err = statusError(qualified, resp.StatusCode(), apiErr.Detail)
	} else if err != nil {
		err = transportError(ctx, qualified, err)
	}
	elapsed := time.Since(started)
	c.metrics.ObserveAPICall(op, elapsed, err)

	if err != nil {
		logger.Warn("api call failed",
			telemetry.OpField(op),
			telemetry.DurationField(elapsed),
			zap.Error(err),
		)
		return err
	}
	logger.Debug("api call", telemetry.OpField(op), telemetry.DurationField(elapsed))
	return nil
}

func statusError(op string, status int, detail any) error {
	msg := fmt.Sprintf("http %d", status)
	if text, ok := detail.(string); ok && text != "" {
		msg = fmt.Sprintf("%s: %s", msg, text)
	}
	switch {
	case status == http.StatusUnauthorized:
		return domain.E(domain.CodeUnauthenticated, op, msg, nil)
	case status == http.StatusNotFound:
		return domain.E(domain.CodeNotFound, op, msg, nil)
	case status >= http.StatusInternalServerError:
		e := domain.E(domain.CodeUnavailable, op, msg, nil)
		e.Retryable = true
		return e
	default:
		return domain.E(domain.CodeInvalidArgument, op, msg, nil)
	}
}

func transportError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return domain.E(domain.CodeCanceled, op, "", err)
	case errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
		return domain.E(domain.CodeDeadlineExceeded, op, "", err)
	default:
		e := domain.E(domain.CodeUnavailable, op, "", err)
		e.Retryable = true
		return e
	}
}

var _ domain.NotificationAPI = (*Client)(nil)
