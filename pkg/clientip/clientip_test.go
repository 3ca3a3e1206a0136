package clientip

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealClientIP(t *testing.T) {
	cases := map[string]string{
		"203.0.113.9:5555":      "203.0.113.9",
		"203.0.113.9":           "203.0.113.9",
		"[2001:db8::1]:443":     "2001:db8::1",
		"2001:db8::1":           "2001:db8::1",
		"[::ffff:192.0.2.7]:80": "192.0.2.7",
		"[fe80::1%eth0]:8080":   "fe80::1",
		" 198.51.100.4:1 ":      "198.51.100.4",
		"not-an-ip":             "not-an-ip",
	}
	for remote, want := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = remote
		assert.Equal(t, want, RealClientIP(r), remote)
	}
}
