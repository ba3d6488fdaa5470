package request

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type Options struct {
	Timeout    time.Duration
	RetryCount int
	UserAgent  string
}

func DefaultOptions() Options {
	return Options{
		Timeout:    15 * time.Second,
		RetryCount: 3,
		UserAgent:  "tokenlens/1.0",
	}
}

// New returns a resty client that honours HTTP(S)_PROXY and retries on 429/5xx.
func New(opts Options) *resty.Client {
	return resty.New().SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment, // 通用适配环境变量
	}).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json").
		AddRetryCondition(RetryableStatus)
}

func RetryableStatus(resp *resty.Response, err error) bool {
	if err != nil || resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
