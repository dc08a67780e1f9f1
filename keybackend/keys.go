package keybackend

import (
	"encoding/json"
	"fmt"
	"os"
)

// KeyPair represents an access key and secret key pair.
type KeyPair struct {
	AccessKey string `json:"access_key" mapstructure:"access_key"`
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`
}

func (p KeyPair) valid() bool {
	return p.AccessKey != "" && p.SecretKey != ""
}

// KeysConfig holds configuration for loading access keys.
type KeysConfig struct {
	Inline []KeyPair `mapstructure:"inline"` // Inline key pairs from config
	File   string    `mapstructure:"file"`   // Path to JSON file containing key pairs
}

// LoadKeysFromFile loads access keys from a JSON file holding an array of
// {"access_key", "secret_key"} objects. Pairs with an empty half are skipped.
func LoadKeysFromFile(path string) ([]KeyPair, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}

	var pairs []KeyPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse keys file: %w", err)
	}

	valid := pairs[:0]
	for _, p := range pairs {
		if p.valid() {
			valid = append(valid, p)
		}
	}
	return valid, nil
}

// LoadKeyPairs returns the inline pairs followed by the file pairs, in
// configuration order, skipping incomplete pairs.
func LoadKeyPairs(cfg KeysConfig) ([]KeyPair, error) {
	var pairs []KeyPair
	for _, p := range cfg.Inline {
		if p.valid() {
			pairs = append(pairs, p)
		}
	}

	if cfg.File != "" {
		filePairs, err := LoadKeysFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, filePairs...)
	}

	return pairs, nil
}

// NewSecretStore merges inline and file keys into one store. File keys take
// precedence over inline keys with the same access key.
func NewSecretStore(cfg KeysConfig) (*MapSecretStore, error) {
	pairs, err := LoadKeyPairs(cfg)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]string, len(pairs))
	for _, p := range pairs {
		keys[p.AccessKey] = p.SecretKey
	}
	return NewMapSecretStore(keys), nil
}

// Primary returns the first configured key pair. folio signs its own object
// URLs with it.
func Primary(cfg KeysConfig) (KeyPair, bool, error) {
	pairs, err := LoadKeyPairs(cfg)
	if err != nil {
		return KeyPair{}, false, err
	}
	if len(pairs) == 0 {
		return KeyPair{}, false, nil
	}
	return pairs[0], true, nil
}
