package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ErrBillingUnavailable is returned for any failed provisioning call. The
// remote side may or may not have partially applied the request; the caller
// gets no stronger guarantee than that.
var ErrBillingUnavailable = errors.New("billing service unavailable")

// Config holds the billing service connection settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client asks the billing service to provision an account for a patient.
// The call is a single blocking round-trip: no retries, no compensation.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type createAccountRequest struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// NewClient creates a new billing provisioning client
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("missing billing service base URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// CreateBillingAccount provisions a billing account for the given patient.
// It blocks for the full remote round-trip; the acknowledgement body carries
// nothing the caller needs.
func (c *Client) CreateBillingAccount(ctx context.Context, patientID, name, email string) error {
	body, err := json.Marshal(createAccountRequest{
		PatientID: patientID,
		Name:      name,
		Email:     email,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal billing account request: %w", err)
	}

	createURL := c.baseURL + "/billing/accounts"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, createURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("Failed to create billing account: %d - %s", resp.StatusCode, string(respBody))
		return fmt.Errorf("%w: status %d", ErrBillingUnavailable, resp.StatusCode)
	}

	log.Printf("Created billing account for patient %s", patientID)

	return nil
}
