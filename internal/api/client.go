package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"valorant-missions/internal/constants"

	"github.com/valyala/fasthttp"
)

// StatusError is returned for any non-200 upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

type RateLimitError struct {
	// seconds
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("API rate limited, retry after %ds", e.RetryAfter)
}

func newFastHTTPClient() *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:     100,
		ReadTimeout:         constants.ExternalAPITimeout,
		WriteTimeout:        constants.ExternalAPITimeout,
		MaxIdleConnDuration: 1 * time.Minute,
	}
}

func doRequest[T any](ctx context.Context, client *fasthttp.Client, url, auth string, onResponse func(*fasthttp.Response) error) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if onResponse != nil {
		if err := onResponse(resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		body := resp.Body()
		if len(body) > 512 {
			body = body[:512]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: string(body)}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

var ErrKofiDisabled = errors.New("ko-fi api key not configured")
