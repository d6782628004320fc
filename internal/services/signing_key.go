package services

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// LoadSigningKey reads the ticket-signing private key from the first
// existing candidate path. It runs once at process start; a deployment
// configured for signed tokens treats an error here as fatal. The returned
// handle is immutable and passed into the signed issuer explicitly.
func LoadSigningKey(paths []string) (*rsa.PrivateKey, error) {
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("LoadSigningKey: read %s: %w", path, err)
		}

		key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
		if err != nil {
			return nil, fmt.Errorf("LoadSigningKey: parse %s: %w", path, err)
		}
		return key, nil
	}

	return nil, fmt.Errorf("LoadSigningKey: no signing key found in %v", paths)
}
