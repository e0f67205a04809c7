package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"socialnet/internal/httputil"
)

const requestUserKey contextKey = "request_user"

// requestUser lets AuthMiddleware report the caller back to the access log.
type requestUser struct {
	id int64
}

// AccessLog logs one line per request, choosing the level by status class.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			user := &requestUser{}

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestUserKey, user)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("ip", r.RemoteAddr),
			}
			if user.id != 0 {
				fields = append(fields, zap.Int64("user_id", user.id))
			}

			switch {
			case status >= 500:
				log.Error("http request", fields...)
			case status >= 400:
				log.Warn("http request", fields...)
			default:
				log.Info("http request", fields...)
			}
		})
	}
}

// Recoverer turns a panic into a logged 500 JSON response.
func Recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic while serving request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", chimw.GetReqID(r.Context())),
					zap.String("panic", fmt.Sprint(rec)),
					zap.Stack("stack"))
				httputil.WriteInternalError(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func noteRequestUser(ctx context.Context, userID int64) {
	if user, ok := ctx.Value(requestUserKey).(*requestUser); ok {
		user.id = userID
	}
}
