package gateway_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkmemoportal/auth-gateway/internal/gateway"
	"github.com/mkmemoportal/auth-gateway/internal/serviceerr"
)

func TestTokenClient_Exchange(t *testing.T) {
	t.Run("posts the code and verifier", func(t *testing.T) {
		idp := StartIdP(t, http.StatusOK, `{"access_token":"t.t.t","expires_in":1800,"token_type":"Bearer"}`)
		cfg := gateway.Config{ClientID: testClientID, IdentityDomain: idp.URL, PublicDomain: testPublicDomain}

		tokens, err := gateway.NewTokenClient(idp.Client()).Exchange(t.Context(), cfg, "abc123", "xyz")
		require.NoError(t, err)

		assert.Equal(t, "t.t.t", tokens.AccessToken)
		assert.Equal(t, 1800, tokens.ExpiresIn)
		assert.Equal(t, "Bearer", tokens.TokenType)

		form := idp.LastForm()
		assert.Equal(t, "authorization_code", form.Get("grant_type"))
		assert.Equal(t, testClientID, form.Get("client_id"))
		assert.Equal(t, "abc123", form.Get("code"))
		assert.Equal(t, "https://"+testPublicDomain+"/", form.Get("redirect_uri"))
		assert.Equal(t, "xyz", form.Get("code_verifier"))
	})

	t.Run("rejection carries the provider error", func(t *testing.T) {
		idp := StartIdP(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"code expired"}`)
		cfg := gateway.Config{ClientID: testClientID, IdentityDomain: idp.URL, PublicDomain: testPublicDomain}

		_, err := gateway.NewTokenClient(idp.Client()).Exchange(t.Context(), cfg, "abc123", "xyz")
		require.Error(t, err)
		assert.ErrorIs(t, err, serviceerr.ErrTokenExchange)

		var exErr *serviceerr.TokenExchangeError
		require.True(t, errors.As(err, &exErr))
		assert.Equal(t, http.StatusBadRequest, exErr.StatusCode)
		assert.Equal(t, "invalid_grant", exErr.ProviderCode)
		assert.Equal(t, "code expired", exErr.Description)
	})

	t.Run("rejection without a json body", func(t *testing.T) {
		idp := StartIdP(t, http.StatusInternalServerError, `oops`)
		cfg := gateway.Config{ClientID: testClientID, IdentityDomain: idp.URL, PublicDomain: testPublicDomain}

		_, err := gateway.NewTokenClient(idp.Client()).Exchange(t.Context(), cfg, "abc123", "xyz")

		var exErr *serviceerr.TokenExchangeError
		require.True(t, errors.As(err, &exErr))
		assert.Equal(t, http.StatusInternalServerError, exErr.StatusCode)
		assert.Empty(t, exErr.ProviderCode)
	})

	t.Run("malformed success body", func(t *testing.T) {
		idp := StartIdP(t, http.StatusOK, `{not json`)
		cfg := gateway.Config{ClientID: testClientID, IdentityDomain: idp.URL, PublicDomain: testPublicDomain}

		_, err := gateway.NewTokenClient(idp.Client()).Exchange(t.Context(), cfg, "abc123", "xyz")
		assert.ErrorIs(t, err, serviceerr.ErrMalformedResponse)
		assert.NotErrorIs(t, err, serviceerr.ErrTokenExchange)
	})

	t.Run("success without access token", func(t *testing.T) {
		idp := StartIdP(t, http.StatusOK, `{"id_token":"x.y.z"}`)
		cfg := gateway.Config{ClientID: testClientID, IdentityDomain: idp.URL, PublicDomain: testPublicDomain}

		_, err := gateway.NewTokenClient(idp.Client()).Exchange(t.Context(), cfg, "abc123", "xyz")
		assert.ErrorIs(t, err, serviceerr.ErrMalformedResponse)
	})

	t.Run("unreachable provider", func(t *testing.T) {
		idp := StartIdP(t, http.StatusOK, `{}`)
		cfg := gateway.Config{ClientID: testClientID, IdentityDomain: idp.URL, PublicDomain: testPublicDomain}
		idp.Close()

		_, err := gateway.NewTokenClient(nil).Exchange(t.Context(), cfg, "abc123", "xyz")
		require.Error(t, err)
		assert.NotErrorIs(t, err, serviceerr.ErrTokenExchange)
	})
}
