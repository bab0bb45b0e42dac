package speech

import (
	"net/url"
	"testing"

	speechmodel "github.com/cassight/aspeak/internal/model/speech"
)

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  *speechmodel.SynthesizerConfig
		want string
	}{
		{name: "nil config", cfg: nil, want: DefaultEndpoint},
		{name: "empty config", cfg: &speechmodel.SynthesizerConfig{}, want: DefaultEndpoint},
		{
			name: "region",
			cfg:  &speechmodel.SynthesizerConfig{Region: "westeurope"},
			want: "wss://westeurope.tts.speech.microsoft.com/cognitiveservices/websocket/v1",
		},
		{
			name: "endpoint wins over region",
			cfg:  &speechmodel.SynthesizerConfig{Endpoint: " wss://example.com/tts ", Region: "westeurope"},
			want: "wss://example.com/tts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveEndpoint(tt.cfg); got != tt.want {
				t.Errorf("ResolveEndpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatEndpointURL(t *testing.T) {
	got, err := FormatEndpointURL("wss://example.com/tts?TrustedClientToken=abc", "conn1")
	if err != nil {
		t.Fatalf("FormatEndpointURL() error = %v", err)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", got, err)
	}
	if u.Query().Get("X-ConnectionId") != "conn1" {
		t.Errorf("X-ConnectionId = %q", u.Query().Get("X-ConnectionId"))
	}
	if u.Query().Get("TrustedClientToken") != "abc" {
		t.Errorf("existing query parameter dropped: %q", got)
	}

	for _, bad := range []string{"https://example.com/tts", "wss://", "::"} {
		if _, err := FormatEndpointURL(bad, "conn1"); err == nil {
			t.Errorf("FormatEndpointURL(%q) expected error", bad)
		}
	}
}

func TestNewConnectionID(t *testing.T) {
	id := newConnectionID()
	if len(id) != 32 {
		t.Errorf("len(newConnectionID()) = %d, want 32", len(id))
	}
	if id == newConnectionID() {
		t.Error("connection ids should be unique")
	}
}

func TestResolveAuthHeader(t *testing.T) {
	header, err := resolveAuthHeader(&speechmodel.SynthesizerConfig{Key: "k"})
	if err != nil {
		t.Fatalf("resolveAuthHeader() error = %v", err)
	}
	if header.Get("Ocp-Apim-Subscription-Key") != "k" {
		t.Errorf("subscription key header = %q", header.Get("Ocp-Apim-Subscription-Key"))
	}

	header, err = resolveAuthHeader(&speechmodel.SynthesizerConfig{Token: "Bearer t"})
	if err != nil {
		t.Fatalf("resolveAuthHeader() error = %v", err)
	}
	if header.Get("Authorization") != "Bearer t" {
		t.Errorf("Authorization = %q, want %q", header.Get("Authorization"), "Bearer t")
	}

	header, err = resolveAuthHeader(&speechmodel.SynthesizerConfig{})
	if err != nil {
		t.Fatalf("resolveAuthHeader() without credentials error = %v", err)
	}
	if len(header) != 0 {
		t.Errorf("header without credentials = %v, want empty", header)
	}
	if _, err := resolveAuthHeader(nil); err == nil {
		t.Error("expected error for nil config")
	}
}
