package google

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/exp/slog"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	defaultMaxDelay   = 10 * time.Second
)

// newRetryClient повторяет запросы при 429, 5xx и сетевых ошибках с экспоненциальной
// задержкой и учетом Retry-After. После исчерпания попыток отдается последний ответ,
// чтобы googleapi разобрал код ошибки.
func newRetryClient(base http.RoundTripper, log *slog.Logger) *retryablehttp.Client {
	if base == nil {
		base = http.DefaultTransport
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Transport: base}
	rc.RetryMax = defaultMaxRetries
	rc.RetryWaitMin = defaultBaseDelay
	rc.RetryWaitMax = defaultMaxDelay
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = log

	return rc
}

// retryPolicy не повторяет POST после ответа 5xx: Google мог успеть создать событие,
// и повтор вставки дал бы дубликат
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.Request != nil &&
		resp.Request.Method == http.MethodPost && resp.StatusCode >= http.StatusInternalServerError {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}
