package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/bracketry/pkg/metrics"
)

// MetricsMiddleware records the request count and latency of an endpoint,
// and an error sample labelled with the API error code for 4xx/5xx replies.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		ms := float64(time.Since(start).Microseconds()) / 1000
		metrics.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(rec.status), ms)
		if rec.status < http.StatusBadRequest {
			return
		}
		code := rec.code
		if code == "" {
			code = "http_" + strconv.Itoa(rec.status)
		}
		metrics.RecordError("http", endpoint, r.Method, code, severity(rec.status), ms)
	}
}

// severity grades a failed reply: engine defects and outages are high,
// rejected input is medium.
func severity(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "high"
	case status == http.StatusConflict:
		return "low"
	}
	return "medium"
}

// codeSetter is implemented by writers that want the error code of a reply.
type codeSetter interface {
	setErrorCode(code string)
}

// statusRecorder captures the status and error code of a reply.
type statusRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (rw *statusRecorder) setErrorCode(code string) { rw.code = code }

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
