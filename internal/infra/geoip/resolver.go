package geoip

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when the resolver is not initialized.
var ErrUnavailable = errors.New("geoip resolver unavailable")

const cacheLimit = 4096

// Resolver maps client addresses to ISO country codes using a MaxMind
// database. Answers are memoised per address; the cache is dropped whole
// once it reaches cacheLimit entries.
type Resolver struct {
	reader *geoip2.Reader

	mu    sync.Mutex
	cache map[netip.Addr]string
}

// NewResolver opens the GeoIP database at the given path. An empty path
// yields a nil resolver, whose lookups report ErrUnavailable.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader, cache: make(map[netip.Addr]string)}, nil
}

// CountryCode returns the ISO country code for ip. Host:port forms are
// accepted. Addresses the database does not know yield "".
func (r *Resolver) CountryCode(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	addr, err := parseAddr(ip)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	code, ok := r.cache[addr]
	r.mu.Unlock()
	if ok {
		return code, nil
	}

	record, err := r.reader.Country(addr.AsSlice())
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record != nil {
		code = record.Country.IsoCode
	}

	r.mu.Lock()
	if len(r.cache) >= cacheLimit {
		clear(r.cache)
	}
	r.cache[addr] = code
	r.mu.Unlock()
	return code, nil
}

func parseAddr(ip string) (netip.Addr, error) {
	ip = strings.TrimSpace(ip)
	if ap, err := netip.ParseAddrPort(ip); err == nil {
		return ap.Addr().Unmap(), nil
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("geoip: invalid ip %q", ip)
	}
	return addr.Unmap(), nil
}

// Lookup adapts the resolver to the I18N middleware. A nil resolver yields
// a nil lookup so the middleware skips IP resolution entirely.
func (r *Resolver) Lookup() func(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.CountryCode
}

// Describe names the loaded database and its build date.
func (r *Resolver) Describe() string {
	if r == nil || r.reader == nil {
		return ""
	}
	meta := r.reader.Metadata()
	built := time.Unix(int64(meta.BuildEpoch), 0).UTC().Format(time.DateOnly)
	return meta.DatabaseType + " " + built
}

// Close closes the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
