package middlware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/ujwegh/bookmart/internal/app/logger"
	"go.uber.org/zap"
)

type responseRecorder struct {
	http.ResponseWriter
	status        int
	contentLength int
	body          bytes.Buffer
}

func (rr *responseRecorder) WriteHeader(status int) {
	rr.status = status
	rr.ResponseWriter.WriteHeader(status)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	rr.body.Write(b)
	size, err := rr.ResponseWriter.Write(b)
	rr.contentLength += size
	return size, err
}

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Log.Info("REQUEST:",
			zap.String("Method", r.Method),
			zap.String("Path", r.URL.Path),
			zap.Duration("Duration", time.Since(start)),
		)
	})
}

func ResponseLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)
		logger.Log.Info("RESPONSE:",
			zap.Int("Status", recorder.status),
			zap.Int("Content-Length", recorder.contentLength),
		)
	})
}
