package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pharmalink/marketplace-api/internal/config"
	"github.com/pharmalink/marketplace-api/pkg/circuitbreaker"
)

// Gateway abstracts the mobile-money provider.
type Gateway interface {
	Charge(ctx context.Context, phoneNumber string, amount float64, reference string) (string, error)
}

type httpGateway struct {
	url    string
	apiKey string
	client *http.Client
	cb     *circuitbreaker.CircuitBreaker
}

func NewHTTPGateway(cfg config.PaymentConfig) Gateway {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpGateway{
		url:    cfg.GatewayURL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
		cb: circuitbreaker.New(circuitbreaker.Settings{
			Name:        "payment-gateway",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
	}
}

type chargeRequest struct {
	PhoneNumber string  `json:"phone_number"`
	Amount      float64 `json:"amount"`
	Reference   string  `json:"reference"`
}

type chargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

func (g *httpGateway) Charge(ctx context.Context, phoneNumber string, amount float64, reference string) (string, error) {
	payload, err := json.Marshal(chargeRequest{
		PhoneNumber: phoneNumber,
		Amount:      amount,
		Reference:   reference,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal charge request: %w", err)
	}

	var result chargeResponse
	err = g.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"/charges", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build charge request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+g.apiKey)

		resp, err := g.client.Do(req)
		if err != nil {
			return fmt.Errorf("charge request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
		if result.Status != "SUCCESS" {
			return fmt.Errorf("charge rejected: %s", result.Message)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return result.TransactionID, nil
}
