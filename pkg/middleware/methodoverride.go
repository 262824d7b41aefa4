package middleware

import (
	"net/http"
	"strings"
)

// MethodOverrideParam is the query or form field that names the real method.
const MethodOverrideParam = "_method"

var overridable = map[string]struct{}{
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// MethodOverride lets HTML forms, which can only GET or POST, reach PUT,
// PATCH and DELETE routes. A POST carrying _method in the query string or
// in a urlencoded body is re-dispatched with that method. Other values are
// ignored. Mount it before the router resolves routes.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			method := r.URL.Query().Get(MethodOverrideParam)
			if method == "" && isURLEncoded(r) {
				// ParseForm buffers the body into r.PostForm, so handlers
				// still see the submitted fields.
				if err := r.ParseForm(); err == nil {
					method = r.PostForm.Get(MethodOverrideParam)
				}
			}
			method = strings.ToUpper(strings.TrimSpace(method))
			if _, ok := overridable[method]; ok {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isURLEncoded(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}
