package rolewatch

import (
	"net/http"
)

// HeaderRequestID is read by InjectAuditContext when no extractor is set.
const HeaderRequestID = "X-Request-ID"

// Middleware provides HTTP middleware that stamps request correlation values
// on the context, so events fired while serving a request carry them.
type Middleware struct {
	getActorID   func(*http.Request) string
	getRequestID func(*http.Request) string
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := rolewatch.NewMiddleware(
//	    rolewatch.WithActorIDExtractor(func(r *http.Request) string {
//	        return auth.UserID(r.Context())
//	    }),
//	)
//	router.Use(mw.InjectAuditContext())
func NewMiddleware(opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		getActorID:   defaultGetActorID,
		getRequestID: defaultGetRequestID,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithActorIDExtractor sets a custom function to extract the acting user from a request.
func WithActorIDExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		if fn != nil {
			m.getActorID = fn
		}
	}
}

// WithRequestIDExtractor sets a custom function to extract the request ID.
func WithRequestIDExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		if fn != nil {
			m.getRequestID = fn
		}
	}
}

func defaultGetActorID(r *http.Request) string {
	return GetActorID(r.Context())
}

func defaultGetRequestID(r *http.Request) string {
	return r.Header.Get(HeaderRequestID)
}

// InjectAuditContext creates middleware that extracts the actor and request ID
// from the request and adds them to the context.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithAuditContext(r.Context(), AuditContext{
				ActorID:   m.getActorID(r),
				RequestID: m.getRequestID(r),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
