package httpclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/argus/pkg/utils/httpclient"
)

func fastClient(opts ...httpclient.Option) *httpclient.Client {
	base := []httpclient.Option{
		httpclient.WithBackoff(1*time.Millisecond, 1*time.Millisecond),
		httpclient.WithTimeout(1 * time.Second),
	}
	return httpclient.New(append(base, opts...)...)
}

func TestRetryExhaustedOnSustainedRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := fastClient(httpclient.WithMaxRetries(3))
	_, err := client.Request(context.Background(), http.MethodGet, srv.URL)
	gt.Error(t, err).Is(httpclient.ErrRetryExhausted)
	gt.Value(t, calls.Load()).Equal(4)
}

func TestBackoffDelaysRespectFloor(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	base := 20 * time.Millisecond
	client := httpclient.New(
		httpclient.WithMaxRetries(2),
		httpclient.WithBackoff(base, 1*time.Millisecond),
		httpclient.WithTimeout(1*time.Second),
	)
	_, err := client.Request(context.Background(), http.MethodGet, srv.URL)
	gt.Error(t, err).Is(httpclient.ErrRetryExhausted)

	mu.Lock()
	defer mu.Unlock()
	gt.Array(t, stamps).Length(3)
	for i := 1; i < len(stamps); i++ {
		floor := (1 << (i - 1)) * base
		gt.Bool(t, stamps[i].Sub(stamps[i-1]) >= floor).True()
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := fastClient(httpclient.WithMaxRetries(3))
	_, err := client.Request(context.Background(), http.MethodGet, srv.URL)
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, httpclient.ErrRetryExhausted)).False()
	gt.Value(t, calls.Load()).Equal(1)
}

func TestRecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	type response struct {
		Status string `json:"status"`
	}

	client := fastClient(httpclient.WithMaxRetries(3))
	resp, err := httpclient.Get[response](context.Background(), client, srv.URL)
	gt.NoError(t, err).Required()
	gt.Value(t, resp.Status).Equal("ok")
	gt.Value(t, calls.Load()).Equal(3)
}

func TestPostSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Method).Equal(http.MethodPost)
		gt.Value(t, r.Header.Get("Content-Type")).Equal("application/json")
		w.Write([]byte(`{"echo":"ping"}`))
	}))
	defer srv.Close()

	type response struct {
		Echo string `json:"echo"`
	}

	client := fastClient()
	resp, err := httpclient.Post[response](context.Background(), client, srv.URL, map[string]string{"message": "ping"})
	gt.NoError(t, err).Required()
	gt.Value(t, resp.Echo).Equal("ping")
}

func TestEmptyResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := fastClient()
	_, err := client.Request(context.Background(), http.MethodGet, srv.URL)
	gt.Error(t, err).Is(httpclient.ErrNoContent)
}

func TestNetworkErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := fastClient(httpclient.WithMaxRetries(1))
	_, err := client.Request(context.Background(), http.MethodGet, srv.URL)
	gt.Error(t, err).Is(httpclient.ErrRetryExhausted)
}

func TestContextCancelDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := httpclient.New(
		httpclient.WithMaxRetries(5),
		httpclient.WithBackoff(10*time.Second, 1*time.Millisecond),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Request(ctx, http.MethodGet, srv.URL)
	gt.Error(t, err)
	gt.Bool(t, time.Since(start) < 5*time.Second).True()
}
