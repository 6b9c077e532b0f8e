package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/scanmaster/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestActor(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", core.DefaultActor},
		{"trimmed", "  maria ", "maria"},
		{"control characters", "ma\x00ria", core.DefaultActor},
		{"invalid utf-8", "\xff\xfe", core.DefaultActor},
		{"truncated", strings.Repeat("a", 80), strings.Repeat("a", maxActorLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = core.ActorFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/escanear", nil)
			if tt.header != "" {
				req.Header.Set(ActorHeader, tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}
