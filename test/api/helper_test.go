package api_test

import (
	"fmt"
	"testing"
	"time"
)

var emailSeq int

func uniqueEmail(prefix string) string {
	emailSeq++
	return fmt.Sprintf("%s_%d_%d@pharmalink.test", prefix, time.Now().UnixNano(), emailSeq)
}

// registerAndLogin creates a fresh user and returns its access token.
func registerAndLogin(t *testing.T, role, email, pharmacyID string) string {
	t.Helper()

	body := map[string]interface{}{
		"email":      email,
		"password":   "test-password-1",
		"first_name": "Test",
		"last_name":  "User",
		"role":       role,
	}
	if pharmacyID != "" {
		body["pharmacy_id"] = pharmacyID
	}

	registerResp := makeRequest("POST", "/auth/register", body, "")
	if !registerResp.IsSuccess() {
		t.Fatalf("failed to register %s: %s", role, registerResp.Message)
	}

	loginResp := makeRequest("POST", "/auth/login", map[string]string{
		"email":    email,
		"password": "test-password-1",
	}, "")
	if !loginResp.IsSuccess() {
		t.Fatalf("failed to log in %s: %s", role, loginResp.Message)
	}
	return loginResp.GetString("access_token")
}

// createApprovedPharmacy registers a pharmacy admin, creates their pharmacy
// and has the super admin approve it. Returns the admin token and pharmacy ID.
func createApprovedPharmacy(t *testing.T) (string, string) {
	t.Helper()
	if adminToken == "" {
		t.Skip("super admin account not available")
	}

	ownerEmail := uniqueEmail("owner")
	ownerToken := registerAndLogin(t, "PHARMACY_ADMIN", ownerEmail, "")

	createResp := makeRequest("POST", "/pharmacies", map[string]interface{}{
		"name":    fmt.Sprintf("Test Pharmacy %d", time.Now().UnixNano()),
		"address": "12 Hill Road",
		"phone":   "+250788000001",
		"email":   uniqueEmail("pharmacy"),
	}, ownerToken)
	if !createResp.IsSuccess() {
		t.Fatalf("failed to create pharmacy: %s", createResp.Message)
	}
	pharmacyID := createResp.GetString("id")

	approveResp := makeRequest("PATCH", "/pharmacies/"+pharmacyID+"/status",
		map[string]string{"status": "APPROVED"}, adminToken)
	if !approveResp.IsSuccess() {
		t.Fatalf("failed to approve pharmacy: %s", approveResp.Message)
	}

	// The pharmacy binding lives in the token claims, so the owner needs a
	// fresh token now that the pharmacy exists.
	loginResp := makeRequest("POST", "/auth/login", map[string]string{
		"email":    ownerEmail,
		"password": "test-password-1",
	}, "")
	if !loginResp.IsSuccess() {
		t.Fatalf("failed to refresh owner login: %s", loginResp.Message)
	}
	return loginResp.GetString("access_token"), pharmacyID
}

// createMedication adds a catalog entry for the pharmacy.
func createMedication(t *testing.T, staffToken, name string, price float64, stock int) string {
	t.Helper()
	resp := makeRequest("POST", "/medications", map[string]interface{}{
		"name":           name,
		"category":       "antibiotics",
		"price":          price,
		"stock_quantity": stock,
	}, staffToken)
	if !resp.IsSuccess() {
		t.Fatalf("failed to create medication: %s", resp.Message)
	}
	return resp.GetString("id")
}
