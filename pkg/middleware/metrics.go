package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "dotdo_http_requests_total",
	Help: "HTTP requests by status code and method.",
}, []string{"code", "method"})

func init() { prometheus.MustRegister(httpRequests) }

// Metrics counts responses by status code.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(sr, r)
			code := sr.code
			if code == 0 {
				code = http.StatusOK
			}
			httpRequests.WithLabelValues(strconv.Itoa(code), r.Method).Inc()
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.code == 0 {
		s.code = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.code == 0 {
		s.code = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
