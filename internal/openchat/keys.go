package openchat

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedKey is returned for key material that is not a P-256 ECDSA key.
var ErrUnsupportedKey = errors.New("unsupported key: want P-256 ECDSA")

// normalizePEM restores newlines in PEM blocks passed through single-line env values.
func normalizePEM(raw string) []byte {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, `\n`, "\n")
	return []byte(s)
}

// ParsePrivateKey parses a SEC1 ("EC PRIVATE KEY") or PKCS#8 PEM private key.
func ParsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(normalizePEM(raw))
	if block == nil {
		return nil, errors.New("identity private key: no PEM block found")
	}
	var (
		key *ecdsa.PrivateKey
		err error
	)
	switch block.Type {
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		var parsed any
		parsed, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		if err == nil {
			k, ok := parsed.(*ecdsa.PrivateKey)
			if !ok {
				return nil, ErrUnsupportedKey
			}
			key = k
		}
	default:
		return nil, fmt.Errorf("identity private key: unexpected PEM type %q", block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("identity private key: %w", err)
	}
	if key.Curve != elliptic.P256() {
		return nil, ErrUnsupportedKey
	}
	return key, nil
}

// ParsePublicKey parses a PKIX ("PUBLIC KEY") PEM public key.
func ParsePublicKey(raw string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(normalizePEM(raw))
	if block == nil {
		return nil, errors.New("platform public key: no PEM block found")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("platform public key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok || key.Curve != elliptic.P256() {
		return nil, ErrUnsupportedKey
	}
	return key, nil
}
