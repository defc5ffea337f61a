package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "forwarded for takes first entry",
			headers:    map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1", "X-Real-IP": "198.51.100.2"},
			remoteAddr: "10.0.0.9:5555",
			want:       "203.0.113.7",
		},
		{
			name:       "real ip when no forwarded for",
			headers:    map[string]string{"X-Real-IP": "198.51.100.2"},
			remoteAddr: "10.0.0.9:5555",
			want:       "198.51.100.2",
		},
		{
			name:       "empty forwarded entry falls through",
			headers:    map[string]string{"X-Forwarded-For": " , 10.0.0.1"},
			remoteAddr: "10.0.0.9:5555",
			want:       "10.0.0.9",
		},
		{
			name:       "remote address host",
			remoteAddr: "192.0.2.10:41234",
			want:       "192.0.2.10",
		},
		{
			name:       "remote address without port",
			remoteAddr: "192.0.2.10",
			want:       "192.0.2.10",
		},
		{
			name:       "unknown",
			remoteAddr: "",
			want:       UnknownIdentity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/trips", nil)
			r.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientIdentity(r))
		})
	}
}
