package keybackend

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ServiceAccount is the subset of a Google service account JSON key that URL
// signing needs.
type ServiceAccount struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// LoadServiceAccount reads a service account key file as downloaded from the
// Google Cloud console.
func LoadServiceAccount(path string) (ServiceAccount, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return ServiceAccount{}, fmt.Errorf("read service account file: %w", err)
	}

	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("parse service account file: %w", err)
	}

	if sa.Type != "" && sa.Type != "service_account" {
		return ServiceAccount{}, fmt.Errorf("parse service account file: unexpected type %q", sa.Type)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return ServiceAccount{}, errors.New("parse service account file: client_email and private_key are required")
	}

	return sa, nil
}
