package urlnorm

import (
	"net/url"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"already canonical", "https://a.test/", "https://a.test/", false},
		{"empty path gets slash", "https://a.test", "https://a.test/", false},
		{"host lowercased", "https://A.Test/Path", "https://a.test/Path", false},
		{"scheme lowercased", "HTTPS://a.test/", "https://a.test/", false},
		{"fragment stripped", "https://a.test/p#frag", "https://a.test/p", false},
		{"query preserved", "https://a.test/p?q=1&r=2", "https://a.test/p?q=1&r=2", false},
		{"port kept", "http://A.test:8080/x", "http://a.test:8080/x", false},
		{"surrounding space trimmed", "  https://a.test/  ", "https://a.test/", false},
		{"no host", "/relative/only", "", true},
		{"no scheme", "a.test/path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once, err := Normalize("HTTP://Example.COM/a?b=c#d")
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Normalize(once)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Errorf("not idempotent: %q -> %q", once, twice)
	}
}

func TestResolvable(t *testing.T) {
	base, _ := url.Parse("https://a.test/dir/page.html")

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"other.html", "https://a.test/dir/other.html", true},
		{"/top", "https://a.test/top", true},
		{"https://b.test/x", "https://b.test/x", true},
		{"#section", "", false},
		{"", "", false},
		{"javascript:void(0)", "", false},
		{"mailto:x@a.test", "", false},
		{"ftp://a.test/f", "", false},
	}

	for _, tt := range tests {
		got, ok := Resolvable(base, tt.href)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Resolvable(%q) = (%q, %v), want (%q, %v)", tt.href, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolvableNoBase(t *testing.T) {
	got, ok := Resolvable(nil, "https://a.test/x")
	if !ok || got != "https://a.test/x" {
		t.Errorf("Resolvable(nil, abs) = (%q, %v)", got, ok)
	}
	if _, ok := Resolvable(nil, "relative.html"); ok {
		t.Error("relative href without base should not resolve")
	}
}
