package http

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// requestIDHeader carries the correlation ID on responses.
const requestIDHeader = "X-Request-Id"

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger assigns a request ID and logs each request on completion.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		log.Printf("http request method=%s path=%s status=%d duration_ms=%d request_id=%s",
			r.Method, r.URL.Path, recorder.status, time.Since(start).Milliseconds(), requestID)
	})
}

// recoverer converts handler panics into 500 responses instead of dropping
// the connection.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Printf("handler panic method=%s path=%s panic=%v", r.Method, r.URL.Path, recovered)
				respondJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
					Code:    "UNKNOWN",
					Message: "internal error",
				}})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
