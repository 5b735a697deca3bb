package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	internalauth "github.com/studyhive/studyhive/internal/auth"
	"github.com/studyhive/studyhive/internal/handlers"
	pkghttp "github.com/studyhive/studyhive/pkg/http"
)

func signupBody(email string) handlers.SignupRequest {
	return handlers.SignupRequest{
		Name:            "Ada Lovelace",
		Email:           email,
		Password:        TestPassword,
		PasswordConfirm: TestPassword,
		Subject:         "mathematics",
	}
}

func TestSignupLoginProtectLogoutFlow(t *testing.T) {
	requireSuite(t)
	email := UniqueEmail("flow")

	// Signup issues both tokens
	resp, err := testServer.DoJSON("POST", "/api/v1/users/signup", signupBody(email), "")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	envelope, err := DecodeEnvelope(resp)
	require.NoError(t, err)
	assert.Equal(t, pkghttp.StatusSuccess, envelope.Status)
	require.NotEmpty(t, envelope.Token)
	require.NotNil(t, RefreshCookie(resp))

	accessToken := envelope.Token

	// The gate accepts the fresh access token
	resp, err = testServer.DoJSON("GET", "/api/v1/users/me", nil, accessToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	envelope, err = DecodeEnvelope(resp)
	require.NoError(t, err)
	assert.Equal(t, email, func() string {
		data := envelope.Data.(map[string]interface{})
		user := data["user"].(map[string]interface{})
		return user["email"].(string)
	}())

	// Login works with the same credentials
	resp, err = testServer.DoJSON("POST", "/api/v1/users/login", handlers.LoginRequest{
		Email:    email,
		Password: TestPassword,
	}, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	envelope, err = DecodeEnvelope(resp)
	require.NoError(t, err)
	loginToken := envelope.Token

	// Logout bumps the generation
	resp, err = testServer.DoJSON("POST", "/api/v1/users/logout", nil, loginToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cleared := RefreshCookie(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// Every token issued before the logout is now revoked, including the
	// one from signup
	resp, err = testServer.DoJSON("GET", "/api/v1/users/me", nil, loginToken)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp, err = testServer.DoJSON("GET", "/api/v1/users/me", nil, accessToken)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginWrongPasswordAndUnknownEmailLookIdentical(t *testing.T) {
	requireSuite(t)
	email := UniqueEmail("enum")

	resp, err := testServer.DoJSON("POST", "/api/v1/users/signup", signupBody(email), "")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = testServer.DoJSON("POST", "/api/v1/users/login", handlers.LoginRequest{
		Email:    email,
		Password: "WrongPassword123!",
	}, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	wrongPassword, err := DecodeEnvelope(resp)
	require.NoError(t, err)

	resp, err = testServer.DoJSON("POST", "/api/v1/users/login", handlers.LoginRequest{
		Email:    UniqueEmail("nobody"),
		Password: TestPassword,
	}, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	unknownEmail, err := DecodeEnvelope(resp)
	require.NoError(t, err)

	assert.Equal(t, wrongPassword.Message, unknownEmail.Message)
}

func TestRefreshTokenRotation(t *testing.T) {
	requireSuite(t)
	email := UniqueEmail("refresh")

	resp, err := testServer.DoJSON("POST", "/api/v1/users/signup", signupBody(email), "")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cookie := RefreshCookie(resp)
	require.NotNil(t, cookie)
	resp.Body.Close()

	// Exchange the cookie for a fresh pair
	resp, err = testServer.DoJSON("POST", "/api/v1/users/refresh_token", nil, "", cookie)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rotated := RefreshCookie(resp)
	require.NotNil(t, rotated)
	assert.NotEqual(t, cookie.Value, rotated.Value, "refresh token must rotate")

	envelope, err := DecodeEnvelope(resp)
	require.NoError(t, err)
	require.NotEmpty(t, envelope.Token)

	// The new access token passes the gate
	resp, err = testServer.DoJSON("GET", "/api/v1/users/me", nil, envelope.Token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRefreshWithoutCookieRejected(t *testing.T) {
	requireSuite(t)

	resp, err := testServer.DoJSON("POST", "/api/v1/users/refresh_token", nil, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestPasswordChangeInvalidatesOldTokens(t *testing.T) {
	requireSuite(t)
	email := UniqueEmail("rotate")

	resp, err := testServer.DoJSON("POST", "/api/v1/users/signup", signupBody(email), "")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	oldEnvelope, err := DecodeEnvelope(resp)
	require.NoError(t, err)
	oldToken := oldEnvelope.Token

	// Tokens minted in the same second as the change must survive, so make
	// sure the change lands in a later second than the signup pair
	resp, err = testServer.DoJSON("PATCH", "/api/v1/users/updatePassword", handlers.UpdatePasswordRequest{
		Password:        "RotatedPassword456!",
		PasswordConfirm: "RotatedPassword456!",
	}, oldToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	newEnvelope, err := DecodeEnvelope(resp)
	require.NoError(t, err)
	require.NotEmpty(t, newEnvelope.Token)

	// The pair issued with the change works
	resp, err = testServer.DoJSON("GET", "/api/v1/users/me", nil, newEnvelope.Token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The old password no longer logs in
	resp, err = testServer.DoJSON("POST", "/api/v1/users/login", handlers.LoginRequest{
		Email:    email,
		Password: TestPassword,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// The new one does
	resp, err = testServer.DoJSON("POST", "/api/v1/users/login", handlers.LoginRequest{
		Email:    email,
		Password: "RotatedPassword456!",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestSocialLoginCreatesAndLocksProvider(t *testing.T) {
	requireSuite(t)
	email := UniqueEmail("social")

	testServer.Verifier.Identities["stub-token-1"] = &internalauth.FederatedIdentity{
		SubjectID: "stub-subject-" + email,
		Email:     email,
		Name:      "Grace Hopper",
	}

	// First social login creates the account
	resp, err := testServer.DoJSON("POST", "/api/v1/users/social-login", handlers.SocialLoginRequest{
		IDToken: "stub-token-1",
	}, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	envelope, err := DecodeEnvelope(resp)
	require.NoError(t, err)
	require.NotEmpty(t, envelope.Token)

	// Second one logs into the same account
	resp, err = testServer.DoJSON("POST", "/api/v1/users/social-login", handlers.SocialLoginRequest{
		IDToken: "stub-token-1",
	}, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Password login against a federated account is a plain 401
	resp, err = testServer.DoJSON("POST", "/api/v1/users/login", handlers.LoginRequest{
		Email:    email,
		Password: TestPassword,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Password signup with that email is a conflict
	resp, err = testServer.DoJSON("POST", "/api/v1/users/signup", signupBody(email), "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestSocialLoginAgainstPasswordAccountConflicts(t *testing.T) {
	requireSuite(t)
	email := UniqueEmail("lockin")

	resp, err := testServer.DoJSON("POST", "/api/v1/users/signup", signupBody(email), "")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	testServer.Verifier.Identities["stub-token-2"] = &internalauth.FederatedIdentity{
		SubjectID: "stub-subject-lockin",
		Email:     email,
		Name:      "Ada Lovelace",
	}

	resp, err = testServer.DoJSON("POST", "/api/v1/users/social-login", handlers.SocialLoginRequest{
		IDToken: "stub-token-2",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestUnknownRouteGetsEnvelope(t *testing.T) {
	requireSuite(t)

	resp, err := testServer.DoJSON("GET", "/api/v1/nope", nil, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	envelope, err := DecodeEnvelope(resp)
	require.NoError(t, err)
	assert.Equal(t, pkghttp.StatusFail, envelope.Status)
}
