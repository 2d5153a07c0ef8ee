package main

import (
	"github.com/gorilla/handlers"
	"net/http"
)

// applyCORSHandler applies a CORS policy to the router. Credentials are allowed so that browsers send the token
// cookie, which in turn requires explicit origins.
func applyCORSHandler(h http.Handler, origins []string) http.Handler {
	return handlers.CORS(
		handlers.AllowedHeaders([]string{
			"Content-Type", "Authorization",
		}),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS", "DELETE", "PUT", "PATCH"}),
		handlers.AllowedOrigins(origins),
	)(h)
}
