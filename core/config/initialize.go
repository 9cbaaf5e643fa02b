package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const privateKeyBits = 2048

// Initialize writes a default configuration, filesystem and host key into
// dir. Existing files are left untouched.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	configFs := afero.NewBasePathFs(afero.NewOsFs(), dir)
	if err := InitializeFs(configFs, logger); err != nil {
		return nil, err
	}
	return Load(dir)
}

// InitializeFs writes the default files into the root of configFs.
func InitializeFs(configFs afero.Fs, logger *log.Logger) error {
	files := []struct {
		name     string
		contents func() ([]byte, error)
	}{
		{ConfigurationName, func() ([]byte, error) { return defaultConfigData, nil }},
		{FilesystemName, func() ([]byte, error) { return defaultFilesystemData, nil }},
		{PrivateKeyName, generatePrivateKey},
	}

	for _, file := range files {
		exists, err := afero.Exists(configFs, file.name)
		if err != nil {
			return err
		}
		if exists {
			logger.Printf("%s already exists, skipping", file.name)
			continue
		}

		data, err := file.contents()
		if err != nil {
			return err
		}
		logger.Printf("Writing %s", file.name)
		if err := afero.WriteFile(configFs, file.name, data, 0600); err != nil {
			return err
		}
	}

	logger.Printf("Creating %s", LogsDirName)
	return configFs.MkdirAll(LogsDirName, 0700)
}

// generatePrivateKey creates a PEM encoded host key.
func generatePrivateKey() ([]byte, error) {
	key, err := rsa.GenerateKey(rand.Reader, privateKeyBits)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), nil
}
