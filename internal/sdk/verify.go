package sdk

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Verifier checks downloaded SDK archives.
type Verifier struct {
	// keyringPath enables signature checks when set.
	keyringPath string
}

// NewVerifier creates a verifier. An empty keyringPath disables OpenPGP
// verification.
func NewVerifier(keyringPath string) *Verifier {
	return &Verifier{keyringPath: keyringPath}
}

// RequiresSignature reports whether a signature must accompany downloads.
func (v *Verifier) RequiresSignature() bool {
	return v.keyringPath != ""
}

// Verify checks archivePath with the strongest method available. Empty
// signaturePath or checksumPath mean that file is not available.
func (v *Verifier) Verify(archivePath, signaturePath, checksumPath string) (VerificationMethod, error) {
	if v.RequiresSignature() {
		if signaturePath == "" {
			return VerificationNone, fmt.Errorf("signature required for %s but not available", filepath.Base(archivePath))
		}
		if err := v.verifyGPG(archivePath, signaturePath); err != nil {
			return VerificationNone, fmt.Errorf("GPG verification failed: %w", err)
		}
		return VerificationGPG, nil
	}

	if checksumPath != "" {
		if err := verifySHA256(archivePath, checksumPath); err != nil {
			return VerificationNone, fmt.Errorf("SHA256 verification failed: %w", err)
		}
		return VerificationSHA256, nil
	}

	return VerificationNone, nil
}

func (v *Verifier) verifyGPG(archivePath, signaturePath string) error {
	keyring, err := loadKeyring(v.keyringPath)
	if err != nil {
		return err
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	sig, err := os.Open(signaturePath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, archive, sig, nil)
	if err != nil {
		if _, seekErr := archive.Seek(0, io.SeekStart); seekErr != nil {
			return seekErr
		}
		if _, seekErr := sig.Seek(0, io.SeekStart); seekErr != nil {
			return seekErr
		}
		_, err = openpgp.CheckDetachedSignature(keyring, archive, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}

// loadKeyring reads an armored or binary OpenPGP keyring.
func loadKeyring(path string) (openpgp.EntityList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
			return nil, seekErr
		}
		keyring, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return keyring, nil
}

func verifySHA256(archivePath, checksumPath string) error {
	actual, err := calculateSHA256(archivePath)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	expected, err := findChecksum(checksumPath, filepath.Base(archivePath))
	if err != nil {
		return fmt.Errorf("find checksum: %w", err)
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch:\nactual:   %s\nexpected: %s", actual, expected)
	}
	return nil
}

func calculateSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// findChecksum reads "<hash>  <name>" lines, or a file holding only a hash
// for the archive it sits next to.
func findChecksum(checksumPath, filename string) (string, error) {
	f, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer f.Close()

	var lone string
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		lines++
		if len(parts) == 1 {
			lone = parts[0]
			continue
		}

		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || filepath.Base(name) == filename {
			return parts[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	if lines == 1 && lone != "" {
		return lone, nil
	}
	return "", fmt.Errorf("checksum not found for %s", filename)
}
