package middleware

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// EnableCORS lets the map front-end and the admin forms call engine from
// another origin. The allowed methods are the ones engine has routes for.
// An empty origins list accepts any origin.
func EnableCORS(engine *gin.Engine, origins []string) http.Handler {
	methods := allowedMethods(engine.Routes())
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (len(allowed) == 0 || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		engine.ServeHTTP(w, r)
	})
}

func allowedMethods(routes gin.RoutesInfo) string {
	seen := map[string]bool{http.MethodOptions: true}
	for _, rt := range routes {
		seen[rt.Method] = true
	}
	methods := make([]string, 0, len(seen))
	for m := range seen {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
