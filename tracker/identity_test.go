package tracker

import "testing"

func TestIdentityKeyURLFirst(t *testing.T) {
	// WHAT: A posting with a URL keys on the URL; title/company are ignored.
	// WHY: URL is the stable identity when present; title churn must not
	// create duplicates.
	a := IdentityKey("https://acme.example/jobs/1", "Backend Engineer", "Acme")
	b := IdentityKey("https://acme.example/jobs/1", "Sr. Backend Engineer", "ACME Inc")
	if a != b {
		t.Errorf("same URL gave different keys: %q vs %q", a, b)
	}
	if a != "u:https://acme.example/jobs/1" {
		t.Errorf("key = %q", a)
	}
}

func TestIdentityKeyTitleFallback(t *testing.T) {
	// WHAT: Without a URL the key is title+company.
	a := IdentityKey("", "Backend Engineer", "Acme")
	if a != "t:backend engineer|acme" {
		t.Errorf("key = %q", a)
	}
}

func TestIdentityKeyNormalization(t *testing.T) {
	// WHAT: Case and whitespace churn yields the same key.
	// WHY: Formatting drifts between fetches; identity must not.
	pairs := [][2]string{
		{IdentityKey("", "Backend  Engineer", "Acme"), IdentityKey("", "backend engineer", "ACME")},
		{IdentityKey("", " Backend\tEngineer ", "Acme"), IdentityKey("", "Backend Engineer", "Acme")},
		{IdentityKey("HTTPS://Acme.example/Jobs/1", "", ""), IdentityKey("https://acme.example/jobs/1", "", "")},
	}
	for i, p := range pairs {
		if p[0] != p[1] {
			t.Errorf("pair %d: %q != %q", i, p[0], p[1])
		}
	}
}

func TestIdentityKeyDistinguishes(t *testing.T) {
	// WHAT: Genuinely different postings get different keys.
	if IdentityKey("", "Backend Engineer", "Acme") == IdentityKey("", "Data Scientist", "Acme") {
		t.Error("different titles collided")
	}
	if IdentityKey("https://a.example/1", "", "") == IdentityKey("https://a.example/2", "", "") {
		t.Error("different URLs collided")
	}
}

func TestNormalizeSourceURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://Acme.Example/Careers/", "https://acme.example/Careers", false},
		{"https://acme.example/careers#team", "https://acme.example/careers", false},
		{"https://acme.example/jobs?b=2&a=1", "https://acme.example/jobs?a=1&b=2", false},
		{"http://acme.example", "http://acme.example", false},
		{"ftp://acme.example", "", true},
		{"", "", true},
		{"not a url", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeSourceURL(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeSourceURL(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("NormalizeSourceURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
