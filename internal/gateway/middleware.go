package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"stockdash/internal/logger"
)

// TraceHeader carries the request trace ID in both directions.
const TraceHeader = "X-Trace-Id"

// AccessCodeHeader carries the TOTP code when the access gate is enabled.
const AccessCodeHeader = "X-Access-Code"

// SetCORS sets CORS headers for an allowed origin. origins may hold "*".
func SetCORS(w http.ResponseWriter, r *http.Request, origins []string) {
	origin := r.Header.Get("Origin")
	for _, o := range origins {
		if o == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			break
		}
		if origin != "" && strings.EqualFold(o, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			break
		}
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+AccessCodeHeader+", "+TraceHeader)
	w.Header().Set("Access-Control-Expose-Headers", TraceHeader+", Content-Disposition")
}

// withTrace assigns every request a trace ID, reusing a valid incoming one.
func withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := strings.TrimSpace(r.Header.Get(TraceHeader))
		if tid == "" || len(tid) > 64 {
			tid = logger.NewTraceID()
		}
		w.Header().Set(TraceHeader, tid)
		next.ServeHTTP(w, r.WithContext(logger.WithTraceID(r.Context(), tid)))
	})
}

// withCORS answers preflight requests and decorates everything else.
func withCORS(origins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w, r, origins)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAccessCode requires a valid TOTP code for secret. An empty secret
// disables the gate.
func withAccessCode(secret string, now func() time.Time, next http.Handler) http.Handler {
	if secret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.Header.Get(AccessCodeHeader)
		if code == "" {
			code = r.URL.Query().Get("code")
		}
		ok, err := totp.ValidateCustom(code, secret, now(), totp.ValidateOpts{
			Period: 30,
			Skew:   1,
			Digits: 6,
		})
		if err != nil || !ok {
			slog.Warn("access code rejected", append(logger.LogWithTrace(r.Context()), "path", r.URL.Path)...)
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid or missing access code", Status: http.StatusUnauthorized})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestContext bounds a handler's work by timeout on top of r's context.
func requestContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), timeout)
}
