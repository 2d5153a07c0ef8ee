// Package authtest mints tokens and authenticated requests for handler tests.
package authtest

import (
	"github.com/jmoiron/sqlx"
	"github.com/silktrader/usof/pkg/auth"
	"github.com/silktrader/usof/pkg/storage/sqlite"
	"github.com/silktrader/usof/pkg/storage/sqlite/sqlitetest"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const secret = "test secret"

func NewIssuer(t testing.TB) *auth.Issuer {
	t.Helper()
	issuer, err := auth.NewIssuer(secret, time.Hour)
	if err != nil {
		t.Fatalf("creating issuer: %v", err)
	}
	return issuer
}

// Token signs a token for a user with the given id, login and role.
func Token(t testing.TB, issuer *auth.Issuer, id int64, login string, roleId int64) string {
	t.Helper()
	token, _, err := issuer.Issue(auth.User{Id: id, Login: login, Email: login + "@example.com", RoleId: roleId})
	if err != nil {
		t.Fatalf("issuing token for %q: %v", login, err)
	}
	return token
}

// DeletedUserToken returns a valid token whose user has since been removed from db.
func DeletedUserToken(t testing.TB, db *sqlx.DB) string {
	t.Helper()
	var id = sqlitetest.AddUser(t, db, "ghost", sqlite.RoleUser)
	var token = Token(t, NewIssuer(t), id, "ghost", sqlite.RoleUser)
	if _, err := db.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		t.Fatalf("deleting user %d: %v", id, err)
	}
	return token
}

// Request builds a JSON request, carrying token as a bearer header unless empty.
func Request(method, path, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	var request = httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	return request
}

// Serve runs the request against handler and returns the recorded response.
func Serve(handler http.Handler, request *http.Request) *httptest.ResponseRecorder {
	var recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}
