package server

import "net/http"

// TokenMigrator is middleware that detects an access token passed as the
// "access_token" query parameter and copies it into an Authorization:
// Bearer header, so that Authorizer only ever has to look in one place.
//
// Put this middleware ahead of any request logger, since otherwise the
// access token would be exposed in logged query strings.
func TokenMigrator(remove bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("access_token")

			if token != "" {
				if r.Header.Get("Authorization") == "" {
					r.Header.Set("Authorization", "Bearer "+token)
				}

				if remove {
					q := r.URL.Query()
					q.Del("access_token")
					r.URL.RawQuery = q.Encode()
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
