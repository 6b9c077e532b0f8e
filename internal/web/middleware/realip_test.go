package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "no trusted proxies ignores headers",
			remoteAddr: "10.0.0.5:5000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "10.0.0.5:5000",
		},
		{
			name:       "trusted cidr uses x-real-ip",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.5:5000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "bare address is a single host",
			trusted:    []string{" 127.0.0.1 "},
			remoteAddr: "127.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"},
			want:       "198.51.100.7",
		},
		{
			name:       "untrusted source keeps remote addr",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "192.168.1.20:4000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "192.168.1.20:4000",
		},
		{
			name:       "garbage header is ignored",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.5:5000",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.0.0.5:5000",
		},
		{
			name:       "invalid entries are skipped",
			trusted:    []string{"bogus", "", "10.0.0.0/8"},
			remoteAddr: "10.1.2.3:80",
			headers:    map[string]string{"X-Forwarded-For": "2001:db8::1"},
			want:       "2001:db8::1",
		},
		{
			name:       "ipv6 proxy",
			trusted:    []string{"::1"},
			remoteAddr: "[::1]:8080",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}
