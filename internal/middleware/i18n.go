package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

var localeMatcher = language.NewMatcher([]language.Tag{language.Russian, language.English})

// Countries whose visitors get Russian when the browser gives no usable hint.
var russianSpeaking = map[string]struct{}{"RU": {}, "BY": {}, "KZ": {}, "KG": {}}

// Headers set by CDNs and proxies in front of the service.
var countryHeaders = []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}

// I18N stores the negotiated locale ("ru" or "en") and, when known, the
// client country in the request context.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLocale tries, in order: X-Locale, Accept-Language, the client
// country, the configured default. Russian is the last resort.
func detectLocale(r *http.Request, fallback string, country string) string {
	for _, hint := range []string{r.Header.Get("X-Locale"), r.Header.Get("Accept-Language")} {
		if v, ok := matchLocale(hint); ok {
			return v
		}
	}
	if country != "" {
		if _, ok := russianSpeaking[country]; ok {
			return "ru"
		}
		return "en"
	}
	if v, ok := matchLocale(fallback); ok {
		return v
	}
	return "ru"
}

func parseTags(header string) []language.Tag {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}
	return tags
}

// matchLocale picks ru or en for an Accept-Language style value. It reports
// false when nothing in the header is close to either.
func matchLocale(header string) (string, bool) {
	tags := parseTags(header)
	if len(tags) == 0 {
		return "", false
	}
	tag, _, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	base, _ := tag.Base()
	return base.String(), true
}

// explicitRegion returns the first region spelled out in a language list,
// e.g. "KZ" for "ru-KZ". Inferred regions do not count.
func explicitRegion(header string) string {
	for _, tag := range parseTags(header) {
		if region, confidence := tag.Region(); confidence == language.Exact {
			return region.String()
		}
	}
	return ""
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "ru"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry returns an upper-case ISO country code from proxy headers,
// the region of the language hints or, last, a GeoIP lookup of the client
// address. Empty when nothing is known.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range countryHeaders {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	for _, hint := range []string{r.Header.Get("X-Locale"), r.Header.Get("Accept-Language")} {
		if region := explicitRegion(hint); region != "" {
			return region
		}
	}
	if lookup == nil {
		return ""
	}
	if country, err := lookup(ClientIP(r)); err == nil {
		return strings.ToUpper(strings.TrimSpace(country))
	}
	return ""
}
