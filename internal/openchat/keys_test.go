package openchat

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"testing"
)

func generateKeyPEM(t *testing.T) (*ecdsa.PrivateKey, string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal private: %v", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public: %v", err)
	}
	priv := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
	public := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}))
	return key, priv, public
}

func TestParsePrivateKeySEC1(t *testing.T) {
	t.Parallel()
	key, priv, _ := generateKeyPEM(t)
	parsed, err := ParsePrivateKey(priv)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(key) {
		t.Fatal("parsed key differs")
	}
}

func TestParsePrivateKeyEscapedNewlines(t *testing.T) {
	t.Parallel()
	_, priv, _ := generateKeyPEM(t)
	oneLine := strings.ReplaceAll(strings.TrimSpace(priv), "\n", `\n`)
	if _, err := ParsePrivateKey(oneLine); err != nil {
		t.Fatalf("parse single-line key: %v", err)
	}
}

func TestParsePrivateKeyPKCS8(t *testing.T) {
	t.Parallel()
	key, _, _ := generateKeyPEM(t)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	raw := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	if _, err := ParsePrivateKey(raw); err != nil {
		t.Fatalf("parse pkcs8: %v", err)
	}
}

func TestParsePrivateKeyRejectsOtherCurves(t *testing.T) {
	t.Parallel()
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	der, _ := x509.MarshalECPrivateKey(key)
	raw := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
	if _, err := ParsePrivateKey(raw); !errors.Is(err, ErrUnsupportedKey) {
		t.Fatalf("expected ErrUnsupportedKey, got %v", err)
	}
}

func TestParsePublicKey(t *testing.T) {
	t.Parallel()
	key, _, public := generateKeyPEM(t)
	parsed, err := ParsePublicKey(public)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(&key.PublicKey) {
		t.Fatal("parsed public key differs")
	}
	if _, err := ParsePublicKey("not a pem"); err == nil {
		t.Fatal("expected error for garbage input")
	}
}
