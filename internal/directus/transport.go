package directus

import (
	"net/http"

	"github.com/google/uuid"
)

// Middleware wraps an http.RoundTripper with additional behaviour.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Wrap applies middlewares to rt. The first middleware is the outermost.
func Wrap(rt http.RoundTripper, mws ...Middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

// setHeader returns a middleware setting header key on every outgoing
// request. Requests that already carry the header are left untouched.
func setHeader(key string, value func() string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(key) != "" {
				return next.RoundTrip(r)
			}
			// RoundTrippers must not modify the caller's request.
			r = r.Clone(r.Context())
			r.Header.Set(key, value())
			return next.RoundTrip(r)
		})
	}
}

// RequestID tags each outgoing request with a fresh X-Request-ID (UUID v4)
// so calls can be correlated with service logs.
func RequestID() Middleware {
	return setHeader("X-Request-ID", func() string { return uuid.New().String() })
}

// BearerToken authenticates requests with a static access token. An empty
// token leaves requests anonymous.
func BearerToken(token string) Middleware {
	if token == "" {
		return func(next http.RoundTripper) http.RoundTripper { return next }
	}
	return setHeader("Authorization", func() string { return "Bearer " + token })
}

// UserAgent sets the User-Agent header.
func UserAgent(ua string) Middleware {
	if ua == "" {
		return func(next http.RoundTripper) http.RoundTripper { return next }
	}
	return setHeader("User-Agent", func() string { return ua })
}
