package endpoint

import "testing"

var testSpec = Spec{
	Name:         "GEMINI_BASE_URL",
	DefaultURL:   "https://generativelanguage.googleapis.com",
	DefaultHosts: []string{"generativelanguage.googleapis.com"},
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		allowedHosts []string
		wantErr      bool
	}{
		{
			name:    "empty falls back to default",
			baseURL: "",
		},
		{
			name:    "default host with https",
			baseURL: "https://generativelanguage.googleapis.com/",
		},
		{
			name:    "reject non-absolute URL",
			baseURL: "generativelanguage.googleapis.com",
			wantErr: true,
		},
		{
			name:    "reject http",
			baseURL: "http://generativelanguage.googleapis.com",
			wantErr: true,
		},
		{
			name:    "reject unknown host by default",
			baseURL: "https://evil.example",
			wantErr: true,
		},
		{
			name:         "allow configured host",
			baseURL:      "https://proxy.internal",
			allowedHosts: []string{"https://Proxy.Internal:8443/"},
		},
		{
			name:         "configured hosts replace defaults",
			baseURL:      "https://generativelanguage.googleapis.com",
			allowedHosts: []string{"proxy.internal"},
			wantErr:      true,
		},
		{
			name:    "reject userinfo",
			baseURL: "https://user:pw@generativelanguage.googleapis.com",
			wantErr: true,
		},
		{
			name:    "reject query",
			baseURL: "https://generativelanguage.googleapis.com?x=1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testSpec.ValidateBaseURL(tt.baseURL, tt.allowedHosts)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeAllowedHosts_DefaultWhenEmpty(t *testing.T) {
	out := testSpec.normalizeAllowedHosts([]string{" ", "https://", "http://"})
	if len(out) != len(testSpec.DefaultHosts) {
		t.Fatalf("expected default allowed hosts, got %v", out)
	}
	if _, ok := out["generativelanguage.googleapis.com"]; !ok {
		t.Fatalf("expected default host in %v", out)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	if got := NormalizeBaseURL("  https://x.example//  ", "https://d.example"); got != "https://x.example" {
		t.Fatalf("unexpected normalized url: %q", got)
	}
	if got := NormalizeBaseURL("", "https://d.example/"); got != "https://d.example" {
		t.Fatalf("unexpected default url: %q", got)
	}
}
