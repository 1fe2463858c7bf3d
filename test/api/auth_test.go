package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow(t *testing.T) {
	email := uniqueEmail("patient")

	registerResp := makeRequest("POST", "/auth/register", map[string]interface{}{
		"email":      email,
		"password":   "test-password-1",
		"first_name": "Test",
		"last_name":  "Patient",
		"role":       "PATIENT",
	}, "")
	require.True(t, registerResp.IsSuccess(), "Failed to register: %s", registerResp.Message)

	// Same email twice is a conflict.
	duplicateResp := makeRequest("POST", "/auth/register", map[string]interface{}{
		"email":      email,
		"password":   "test-password-1",
		"first_name": "Test",
		"last_name":  "Patient",
		"role":       "PATIENT",
	}, "")
	assert.False(t, duplicateResp.IsSuccess())

	badLoginResp := makeRequest("POST", "/auth/login", map[string]string{
		"email":    email,
		"password": "wrong-password-1",
	}, "")
	assert.False(t, badLoginResp.IsSuccess())

	loginResp := makeRequest("POST", "/auth/login", map[string]string{
		"email":    email,
		"password": "test-password-1",
	}, "")
	require.True(t, loginResp.IsSuccess(), "Failed to log in: %s", loginResp.Message)

	accessToken := loginResp.GetString("access_token")
	refreshToken := loginResp.GetString("refresh_token")
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)

	refreshResp := makeRequest("POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, "")
	require.True(t, refreshResp.IsSuccess(), "Failed to refresh: %s", refreshResp.Message)
	assert.NotEmpty(t, refreshResp.GetString("access_token"))

	// The token opens protected routes.
	ordersResp := makeRequest("GET", "/orders/my-orders", nil, accessToken)
	assert.True(t, ordersResp.IsSuccess(), "Failed to list orders: %s", ordersResp.Message)

	// No token does not.
	anonResp := makeRequest("GET", "/orders/my-orders", nil, "")
	assert.False(t, anonResp.IsSuccess())
}

func TestForgotPasswordDoesNotLeakAccounts(t *testing.T) {
	resp := makeRequest("POST", "/auth/forgot-password", map[string]string{
		"email": uniqueEmail("nobody"),
	}, "")
	assert.True(t, resp.IsSuccess(), "Forgot password should not reveal whether the email exists")
}
