package http

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/faq-chatbot/internal/infra/config"
)

const retryBodyLimit = 1 << 20 // 1 MiB

var errBodyTooLarge = errors.New("request body exceeds retry limit")

// retrySafeRoutes records routes whose handlers can run twice without a visible
// side effect. Asking, feedback and session creation are never registered here:
// a repeat would double count trending tags or log a second query.
type retrySafeRoutes map[string]struct{}

// handle registers the route on group and marks it retry safe.
func (r retrySafeRoutes) handle(group *gin.RouterGroup, method, relativePath string, handlers ...gin.HandlerFunc) {
	group.Handle(method, relativePath, handlers...)
	r[method+" "+path.Join(group.BasePath(), relativePath)] = struct{}{}
}

func (r retrySafeRoutes) contains(req *http.Request) bool {
	_, ok := r[req.Method+" "+req.URL.Path]
	return ok
}

// withRetry replays retry-safe requests that fail with 503, the status the FAQ
// layer reports for an unreachable embedding service or dataset source.
func withRetry(handler http.Handler, cfg config.RetryConfig, routes retrySafeRoutes, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 || len(routes) == 0 {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !routes.contains(r) {
			handler.ServeHTTP(w, r)
			return
		}
		bodyBytes, err := readRequestBody(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}

		for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
			if attempt > 1 {
				backoff := cfg.BaseBackoff << (attempt - 2)
				select {
				case <-r.Context().Done():
					return
				case <-time.After(backoff):
				}
			}

			recorder := newRetryResponseRecorder(w)
			attemptReq := r.Clone(r.Context())
			attemptReq.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			attemptReq.ContentLength = int64(len(bodyBytes))

			handler.ServeHTTP(recorder, attemptReq)
			if !recorder.retryable() || attempt == cfg.MaxAttempts {
				recorder.Commit()
				return
			}

			logger.Warn("faq backend unavailable, retrying request", "method", r.Method, "path", r.URL.Path, "attempt", attempt)
		}
	})
}

func readRequestBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	reader := io.LimitReader(r.Body, retryBodyLimit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(data) > retryBodyLimit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

type retryResponseRecorder struct {
	dst        http.ResponseWriter
	header     http.Header
	body       bytes.Buffer
	statusCode int
	wroteHead  bool
}

func newRetryResponseRecorder(dst http.ResponseWriter) *retryResponseRecorder {
	return &retryResponseRecorder{
		dst:        dst,
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (r *retryResponseRecorder) Header() http.Header {
	return r.header
}

func (r *retryResponseRecorder) WriteHeader(status int) {
	if r.wroteHead {
		return
	}
	r.statusCode = status
	r.wroteHead = true
}

func (r *retryResponseRecorder) Write(b []byte) (int, error) {
	return r.body.Write(b)
}

func (r *retryResponseRecorder) Commit() {
	dstHeader := r.dst.Header()
	for k := range dstHeader {
		dstHeader.Del(k)
	}
	for k, values := range r.header {
		copied := make([]string, len(values))
		copy(copied, values)
		dstHeader[k] = copied
	}
	if !r.wroteHead {
		r.statusCode = http.StatusOK
	}
	r.dst.WriteHeader(r.statusCode)
	if r.body.Len() > 0 {
		_, _ = r.dst.Write(r.body.Bytes())
	}
}

func (r *retryResponseRecorder) retryable() bool {
	return r.statusCode == http.StatusServiceUnavailable
}

func (r *retryResponseRecorder) Flush() {}
