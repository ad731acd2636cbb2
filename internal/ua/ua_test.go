package ua

import (
	"testing"

	surfer "github.com/avct/uasurfer"
)

const (
	chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.6422.112 Safari/537.36"
	googlebot = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestParseDesktopBrowser(t *testing.T) {
	got := Parse(chromeMac)
	if got.Browser != "Chrome" {
		t.Errorf("browser = %q", got.Browser)
	}
	if got.Device != "Desktop" {
		t.Errorf("device = %q", got.Device)
	}
	if got.IsBot {
		t.Error("chrome reported as bot")
	}
	if got.Version == "" {
		t.Error("missing browser version")
	}
}

func TestParseBot(t *testing.T) {
	got := Parse(googlebot)
	if !got.IsBot || got.Device != "Bot" {
		t.Fatalf("got %+v, want bot", got)
	}
}

func TestVersionString(t *testing.T) {
	cases := []struct {
		in   surfer.Version
		want string
	}{
		{surfer.Version{}, ""},
		{surfer.Version{Major: 17}, "17"},
		{surfer.Version{Major: 17, Minor: 3}, "17.3"},
		{surfer.Version{Major: 17, Minor: 3, Patch: 1}, "17.3.1"},
		{surfer.Version{Major: 17, Patch: 1}, "17.0.1"},
	}
	for _, tc := range cases {
		if got := versionString(tc.in); got != tc.want {
			t.Errorf("versionString(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
