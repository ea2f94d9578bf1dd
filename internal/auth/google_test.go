package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(SocialIdentity{
			Email: "g@shop.io", EmailVerified: true, GivenName: "Gina", FamilyName: "Lopez",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleIdentify_WithCode(t *testing.T) {
	srv := fakeGoogle(t)
	g := NewGoogleProvider("id", "secret", "http://localhost/cb").WithEndpoints(srv.URL+"/token", srv.URL+"/userinfo")

	id, err := g.Identify(context.Background(), "good-code", "")
	require.NoError(t, err)
	assert.Equal(t, "g@shop.io", id.Email)
	assert.Equal(t, "Gina", id.GivenName)
}

func TestGoogleIdentify_WithAccessToken(t *testing.T) {
	srv := fakeGoogle(t)
	g := NewGoogleProvider("id", "secret", "").WithEndpoints(srv.URL+"/token", srv.URL+"/userinfo")

	id, err := g.Identify(context.Background(), "", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Lopez", id.FamilyName)
}

func TestGoogleIdentify_Rejections(t *testing.T) {
	srv := fakeGoogle(t)
	g := NewGoogleProvider("id", "secret", "").WithEndpoints(srv.URL+"/token", srv.URL+"/userinfo")
	ctx := context.Background()

	_, err := g.Identify(ctx, "bad-code", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = g.Identify(ctx, "", "stolen")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = g.Identify(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
