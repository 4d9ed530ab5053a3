package signer

import (
	"bytes"
	"crypto"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// GPGSigner signs manifests with a loaded OpenPGP entity. Detached
// signatures are produced in-process via go-crypto; cleartext signing
// shells out to the gpg binary because apt's cleartext verifier rejects
// go-crypto's own clearsign output in practice.
type GPGSigner struct {
	entity  *openpgp.Entity
	keyPath string
}

// NewGPGSigner loads a private key (armored or binary) from keyPath and
// decrypts it with passphrase if it is encrypted.
func NewGPGSigner(keyPath, passphrase string) (*GPGSigner, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("signer: key path is empty")
	}

	keyFile, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("signer: open key file: %w", err)
	}
	defer keyFile.Close()

	entityList, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		keyFile.Seek(0, 0)
		entityList, err = openpgp.ReadKeyRing(keyFile)
		if err != nil {
			return nil, fmt.Errorf("signer: read key: %w", err)
		}
	}
	if len(entityList) == 0 {
		return nil, fmt.Errorf("signer: no keys found in %s", keyPath)
	}
	entity := entityList[0]

	if passphrase != "" {
		if entity.PrivateKey != nil && entity.PrivateKey.Encrypted {
			if err := entity.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
				return nil, fmt.Errorf("signer: decrypt private key: %w", err)
			}
		}
		for _, subkey := range entity.Subkeys {
			if subkey.PrivateKey != nil && subkey.PrivateKey.Encrypted {
				if err := subkey.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
					return nil, fmt.Errorf("signer: decrypt subkey: %w", err)
				}
			}
		}
	}

	return &GPGSigner{entity: entity, keyPath: keyPath}, nil
}

// SignCleartext implements Signer.
func (s *GPGSigner) SignCleartext(data []byte) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "mkrepo-gpg-*")
	if err != nil {
		return nil, fmt.Errorf("signer: temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	keyPath, err := filepath.Abs(s.keyPath)
	if err != nil {
		return nil, fmt.Errorf("signer: abs key path: %w", err)
	}

	importCmd := exec.Command("gpg", "--homedir", tmpDir, "--import", keyPath)
	if out, err := importCmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("signer: import key: %w: %s", err, out)
	}

	inputFile := filepath.Join(tmpDir, "input.txt")
	if err := os.WriteFile(inputFile, data, 0o600); err != nil {
		return nil, fmt.Errorf("signer: write input: %w", err)
	}

	signCmd := exec.Command("gpg", "--homedir", tmpDir, "--clearsign", "--armor",
		"--digest-algo", "SHA512", "--batch", "--yes", inputFile)
	if out, err := signCmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("signer: clearsign: %w: %s", err, out)
	}

	return os.ReadFile(inputFile + ".asc")
}

// SignDetached implements Signer.
func (s *GPGSigner) SignDetached(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), &packet.Config{
		DefaultHash: crypto.SHA512,
	})
	if err != nil {
		return nil, fmt.Errorf("signer: detached sign: %w", err)
	}
	return buf.Bytes(), nil
}

// PublicKey implements Signer.
func (s *GPGSigner) PublicKey() ([]byte, error) {
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, err
	}
	if err := s.entity.Serialize(w); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ Signer = (*GPGSigner)(nil)
