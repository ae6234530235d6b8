package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// TestData is the login fixture consumed by the page objects.
type TestData struct {
	Modal struct {
		Title            string `json:"Title"`
		RegisteredNumber string `json:"RegisteredNumber"`
	} `json:"Modal"`
	ProfileDetails struct {
		FirstName       string `json:"FirstName"`
		LastName        string `json:"LastName"`
		RegisteredEmail string `json:"RegisteredEmail"`
	} `json:"ProfileDetails"`
}

// LoadTestData reads the login fixture JSON.
func LoadTestData(path string) (*TestData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("test data: %w", err)
	}
	var td TestData
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, fmt.Errorf("test data: %w", err)
	}
	if td.Modal.RegisteredNumber == "" {
		return nil, fmt.Errorf("test data: Modal.RegisteredNumber is required")
	}
	return &td, nil
}
