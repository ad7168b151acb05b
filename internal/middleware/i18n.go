package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// LocaleKey indexes the resolved locale in the request context.
var LocaleKey = localeContextKey{}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// supported lists the locales advisory messages exist for; the first entry
// is the ultimate fallback.
var supported = []language.Tag{
	language.English,
	language.Indonesian,
}

var matcher = language.NewMatcher(supported)

// I18N resolves the request locale from, in order: the X-Locale header, the
// Accept-Language header, and the GeoIP country of the client address.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, defaultLocale, lookup)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext returns the resolved locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return "en"
}

func detectLocale(r *http.Request, fallback string, lookup CountryLookup) string {
	if v := r.Header.Get("X-Locale"); v != "" {
		return matchLocale(v)
	}
	if v := r.Header.Get("Accept-Language"); v != "" {
		if tags, _, err := language.ParseAcceptLanguage(v); err == nil && len(tags) > 0 {
			_, idx, _ := matcher.Match(tags...)
			return baseLocale(supported[idx])
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && strings.EqualFold(country, "ID") {
				return "id"
			}
		}
	}
	if fallback != "" {
		return matchLocale(fallback)
	}
	return "en"
}

func matchLocale(raw string) string {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "en"
	}
	_, idx, _ := matcher.Match(tag)
	return baseLocale(supported[idx])
}

func baseLocale(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
