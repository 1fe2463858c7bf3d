package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMarketplaceFlow walks the whole happy path: an approved pharmacy
// stocks its catalog, a patient checks out a cart, staff move the order to
// READY, a courier claims and completes the delivery.
func TestMarketplaceFlow(t *testing.T) {
	ownerToken, pharmacyID := createApprovedPharmacy(t)
	medicationID := createMedication(t, ownerToken, "Amoxicillin 500mg", 12.50, 50)

	patientToken := registerAndLogin(t, "PATIENT", uniqueEmail("patient"), "")

	// Fill the cart.
	addResp := makeRequest("POST", "/cart/items", map[string]interface{}{
		"medication_id": medicationID,
		"quantity":      2,
	}, patientToken)
	require.True(t, addResp.IsSuccess(), "Failed to add to cart: %s", addResp.Message)

	cartResp := makeRequest("GET", "/cart", nil, patientToken)
	require.True(t, cartResp.IsSuccess())
	items, _ := cartResp.Data["items"].([]interface{})
	require.Len(t, items, 1)

	// Check out cash on delivery.
	checkoutResp := makeRequest("POST", "/cart/checkout", map[string]interface{}{
		"delivery_address": "12 Hill Road",
		"payment_method":   "CASH_ON_DELIVERY",
	}, patientToken)
	require.True(t, checkoutResp.IsSuccess(), "Checkout failed: %s", checkoutResp.Message)

	orders, _ := checkoutResp.Data["orders"].([]interface{})
	require.Len(t, orders, 1)
	orderData, _ := orders[0].(map[string]interface{})
	orderID, _ := orderData["id"].(string)
	require.NotEmpty(t, orderID)
	assert.Equal(t, "PENDING", orderData["status"])
	assert.InDelta(t, 25.00, checkoutResp.Data["total_amount"], 0.001)

	// The cart is consumed.
	emptyCartResp := makeRequest("GET", "/cart", nil, patientToken)
	require.True(t, emptyCartResp.IsSuccess())
	emptyItems, _ := emptyCartResp.Data["items"].([]interface{})
	assert.Empty(t, emptyItems)

	// Skipping states is rejected.
	skipResp := makeRequest("PATCH", "/orders/"+orderID+"/status",
		map[string]string{"status": "DELIVERED"}, ownerToken)
	assert.False(t, skipResp.IsSuccess())

	// Patients do not drive fulfilment.
	patientMoveResp := makeRequest("PATCH", "/orders/"+orderID+"/status",
		map[string]string{"status": "CONFIRMED"}, patientToken)
	assert.False(t, patientMoveResp.IsSuccess())

	for _, status := range []string{"CONFIRMED", "PREPARING"} {
		resp := makeRequest("PATCH", "/orders/"+orderID+"/status",
			map[string]string{"status": status}, ownerToken)
		require.True(t, resp.IsSuccess(), "Failed to move order to %s: %s", status, resp.Message)
	}

	readyResp := makeRequest("PATCH", "/orders/"+orderID+"/status",
		map[string]string{"status": "READY"}, ownerToken)
	require.True(t, readyResp.IsSuccess(), "Failed to move order to READY: %s", readyResp.Message)
	assert.Equal(t, "assign_delivery", readyResp.GetString("next_action"))

	// A courier claims the delivery from the pharmacy pool.
	courierToken := registerAndLogin(t, "DELIVERY", uniqueEmail("courier"), pharmacyID)

	availableResp := makeRequest("GET", "/deliveries/available?pharmacyId="+pharmacyID, nil, courierToken)
	require.True(t, availableResp.IsSuccess(), "Failed to list deliveries: %s", availableResp.Message)

	var deliveryID string
	for _, raw := range availableResp.GetList() {
		if raw["order_id"] == orderID {
			deliveryID, _ = raw["id"].(string)
		}
	}
	require.NotEmpty(t, deliveryID, "order's delivery not in the available pool")

	acceptResp := makeRequest("POST", "/deliveries/"+deliveryID+"/accept", nil, courierToken)
	require.True(t, acceptResp.IsSuccess(), "Failed to accept delivery: %s", acceptResp.Message)
	assert.Equal(t, "ASSIGNED", acceptResp.GetString("status"))

	// Second claim loses.
	rivalToken := registerAndLogin(t, "DELIVERY", uniqueEmail("courier"), pharmacyID)
	rivalResp := makeRequest("POST", "/deliveries/"+deliveryID+"/accept", nil, rivalToken)
	assert.False(t, rivalResp.IsSuccess())

	transitResp := makeRequest("PATCH", "/deliveries/"+deliveryID+"/status",
		map[string]string{"status": "IN_TRANSIT"}, courierToken)
	require.True(t, transitResp.IsSuccess(), "Failed to start transit: %s", transitResp.Message)

	// The order follows its delivery.
	orderResp := makeRequest("GET", "/orders/"+orderID, nil, patientToken)
	require.True(t, orderResp.IsSuccess())
	assert.Equal(t, "DELIVERING", orderResp.GetString("status"))

	deliveredResp := makeRequest("PATCH", "/deliveries/"+deliveryID+"/status",
		map[string]string{"status": "DELIVERED"}, courierToken)
	require.True(t, deliveredResp.IsSuccess(), "Failed to complete delivery: %s", deliveredResp.Message)

	finalResp := makeRequest("GET", "/orders/"+orderID, nil, patientToken)
	require.True(t, finalResp.IsSuccess())
	assert.Equal(t, "DELIVERED", finalResp.GetString("status"))
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	patientToken := registerAndLogin(t, "PATIENT", uniqueEmail("patient"), "")

	resp := makeRequest("POST", "/cart/checkout", map[string]interface{}{
		"delivery_address": "12 Hill Road",
		"payment_method":   "CASH_ON_DELIVERY",
	}, patientToken)
	assert.False(t, resp.IsSuccess())
}

func TestCartRejectsMixedPharmacies(t *testing.T) {
	ownerA, _ := createApprovedPharmacy(t)
	ownerB, _ := createApprovedPharmacy(t)
	medA := createMedication(t, ownerA, "Amoxicillin 500mg", 12.50, 50)
	medB := createMedication(t, ownerB, "Ibuprofen 200mg", 4.00, 50)

	patientToken := registerAndLogin(t, "PATIENT", uniqueEmail("patient"), "")

	addResp := makeRequest("POST", "/cart/items", map[string]interface{}{
		"medication_id": medA,
		"quantity":      1,
	}, patientToken)
	require.True(t, addResp.IsSuccess(), "Failed to add to cart: %s", addResp.Message)

	mixResp := makeRequest("POST", "/cart/items", map[string]interface{}{
		"medication_id": medB,
		"quantity":      1,
	}, patientToken)
	assert.False(t, mixResp.IsSuccess())

	// clear_existing swaps the cart over to the new pharmacy.
	swapResp := makeRequest("POST", "/cart/items", map[string]interface{}{
		"medication_id":  medB,
		"quantity":       1,
		"clear_existing": true,
	}, patientToken)
	require.True(t, swapResp.IsSuccess(), "Failed to swap cart: %s", swapResp.Message)
	items, _ := swapResp.Data["items"].([]interface{})
	require.Len(t, items, 1)
}
