package middleware

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/scanmaster/internal/core"
)

// ActorHeader names the operator recorded on each reading. It is not
// authenticated.
const ActorHeader = "X-Usuario"

// maxActorLen bounds the stored operator name.
const maxActorLen = 64

// Actor puts the operator named by ActorHeader into the request context.
// Missing or unprintable names fall back to core.DefaultActor.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name := cleanActor(r.Header.Get(ActorHeader)); name != "" {
			r = r.WithContext(core.ContextWithActor(r.Context(), name))
		}
		next.ServeHTTP(w, r)
	})
}

func cleanActor(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || !utf8.ValidString(v) {
		return ""
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < 0x20 || r == 0x7f }) >= 0 {
		return ""
	}
	if utf8.RuneCountInString(v) > maxActorLen {
		v = string([]rune(v)[:maxActorLen])
	}
	return v
}
