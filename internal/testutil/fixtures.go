// Package testutil provides common testing utilities, fixtures, and helpers
// for use across the project's test files.
package testutil

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sptool/studioauth/internal/models"
)

// LicenseIdentity creates a license identity with default values.
func LicenseIdentity() *models.LicenseIdentity {
	return &models.LicenseIdentity{
		Username: "SP Tool",
		Subscriptions: []models.Subscription{{
			Name:     "default",
			Expiry:   "08/30/2028",
			DaysLeft: 731,
		}},
		HardwareID: uuid.New().String(),
		IP:         "127.0.0.1",
		CreateDate: "08/30/2026",
		LastLogin:  "08/30/2026",
	}
}

// GoogleIdentity creates a Google identity with default values.
func GoogleIdentity() *models.GoogleIdentity {
	return &models.GoogleIdentity{
		Name:    "Test User",
		Email:   "test@example.com",
		Picture: "https://lh3.googleusercontent.com/a/test",
	}
}

// GoogleIdentityJSON returns the default Google identity serialized the way
// the auth store persists it, for seeding storage in tests.
func GoogleIdentityJSON() string {
	raw, _ := json.Marshal(GoogleIdentity())
	return string(raw)
}

// TimePtr returns a pointer to the given time.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string {
	return &s
}

// UserAgents provides common user agent strings for testing.
var UserAgents = struct {
	Chrome       string
	Safari       string
	Firefox      string
	Edge         string
	MobileChrome string
	MobileSafari string
	Unknown      string
}{
	Chrome:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	Safari:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	Firefox:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	Edge:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	MobileChrome: "Mozilla/5.0 (Linux; Android 13) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.144 Mobile Safari/537.36",
	MobileSafari: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	Unknown:      "",
}

// IPAddresses provides test IP addresses.
var IPAddresses = struct {
	Public     string
	Private    string
	Localhost  string
	Private10  string
	Private172 string
}{
	Public:     "203.0.113.42",
	Private:    "192.168.1.100",
	Localhost:  "127.0.0.1",
	Private10:  "10.0.0.1",
	Private172: "172.16.0.1",
}
