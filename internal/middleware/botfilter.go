package middleware

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/mssola/user_agent"
	"github.com/oschwald/geoip2-golang"

	"github.com/publihazclick/publihazclick-sub000/pkg/hash"
)

// BotFilter rejects obvious non-human traffic on the claim and view paths.
// It is a cheap first gate; the challenge and the claim worker remain the
// real anti-fraud controls.
type BotFilter struct {
	geoDB          *geoip2.Reader
	allowCountries map[string]bool
}

// NewBotFilter creates a bot filter. geoDBPath may be empty, in which case
// the country gate is disabled. allowCountries is a comma-separated ISO
// country code list; empty allows every country.
func NewBotFilter(geoDBPath, allowCountries string) (*BotFilter, error) {
	bf := &BotFilter{}

	if geoDBPath != "" {
		db, err := geoip2.Open(geoDBPath)
		if err != nil {
			return nil, err
		}
		bf.geoDB = db
	}

	if allowCountries != "" {
		bf.allowCountries = make(map[string]bool)
		for _, cc := range strings.Split(allowCountries, ",") {
			cc = strings.ToUpper(strings.TrimSpace(cc))
			if cc != "" {
				bf.allowCountries[cc] = true
			}
		}
	}

	return bf, nil
}

// Handler returns a Fiber middleware that blocks crawler user agents and,
// when GeoIP is configured, requests from outside the allowed countries.
func (bf *BotFilter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		rawUA := c.Get("User-Agent")
		ua := user_agent.New(rawUA)

		if ua.Bot() || rawUA == "" {
			Logger.Warn().
				Str("ip_hash", hash.ShortHash(c.IP(), 12)).
				Str("reason", "bot_ua").
				Msg("request blocked")
			return ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", "Automated clients are not allowed")
		}

		if bf.geoDB != nil && bf.allowCountries != nil {
			if country := bf.countryCode(c.IP()); country != "" && !bf.allowCountries[country] {
				Logger.Warn().
					Str("ip_hash", hash.ShortHash(c.IP(), 12)).
					Str("country", country).
					Str("reason", "country_blocked").
					Msg("request blocked")
				return ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", "Service not available in your region")
			}
		}

		return c.Next()
	}
}

// countryCode resolves an IP to its ISO country code, or "" when unknown.
// Lookup failures fail open; the country gate is a heuristic, not a
// security boundary.
func (bf *BotFilter) countryCode(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := bf.geoDB.Country(parsed)
	if err != nil || record == nil {
		return ""
	}
	return record.Country.IsoCode
}

// Close releases the GeoIP database handle.
func (bf *BotFilter) Close() error {
	if bf.geoDB == nil {
		return nil
	}
	return bf.geoDB.Close()
}
