package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/RedHatInsights/tenant_provisioner/internal/xrhidentity"
	"github.com/google/uuid"
	"github.com/redhatinsights/platform-go-middlewares/request_id"
	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.written {
		s.status = code
		s.written = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.written {
		s.status = http.StatusOK
		s.written = true
	}
	return s.ResponseWriter.Write(b)
}

// requestLogger stores a request scoped entry tagged with the request id
// and the operator in the context and logs every request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := request_id.GetReqID(r.Context())
		if reqID == "" {
			reqID = uuid.New().String()
		}
		fields := logrus.Fields{"request_id": reqID}
		if hdr := r.Header.Get(xrhidentity.Header); hdr != "" {
			if xrh, err := xrhidentity.GetXRHIdentity(hdr); err == nil {
				fields["operator"] = xrh.Operator()
			}
		}
		entry := logger.Log.WithFields(fields)
		ctx := logger.CtxWithLogger(r.Context(), entry)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		entry.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Info("incoming request")
		next.ServeHTTP(rec, r.WithContext(ctx))
		entry.WithFields(logrus.Fields{
			"status":   rec.status,
			"duration": fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
		}).Info("request completed")
	})
}

// panicHandler turns a panic into a generic failure response
func panicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if err := recover(); err != nil {
				logger.GetLogger(r.Context()).WithField("stack_trace", string(debug.Stack())).
					Errorf("panic occurred %v", err)
				if !rec.written {
					sendError(rec, r, http.StatusInternalServerError, genericFailure)
				}
			}
		}()
		next.ServeHTTP(rec, r)
	})
}
