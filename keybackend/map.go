// Package keybackend loads the secrets folio authenticates with: the admin
// token, access key pairs for self-hosted object URLs, and GCS service
// account keys.
package keybackend

import "fmt"

// MapSecretStore retrieves secret keys from an in-memory map.
type MapSecretStore struct {
	keys map[string]string
}

// NewMapSecretStore creates a new map-based secret store with the given access key to secret key mapping.
func NewMapSecretStore(keys map[string]string) *MapSecretStore {
	return &MapSecretStore{keys: keys}
}

// Lookup retrieves the secret key for the given access key from the map.
func (s *MapSecretStore) Lookup(accessKey string) (string, error) {
	secretKey, found := s.keys[accessKey]
	if !found || accessKey == "" {
		return "", fmt.Errorf("lookup %q: %w", accessKey, ErrKeyNotFound)
	}
	return secretKey, nil
}
