package config

import (
	"path/filepath"
	"strings"
)

const (
	storeBackendVar   = "PROMPTSTUDIO_STORE"
	keyringServiceVar = "PROMPTSTUDIO_KEYRING_SERVICE"
)

// Supported token store backends.
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
	StoreSQLite  = "sqlite"
	StoreMemory  = "memory"
)

type StoreConfig interface {
	GetStoreBackend() string
	GetCredentialsFile() string
	GetSQLitePath() string
	GetKeyringService() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreBackend() string {
	return strings.ToLower(GetEnv(storeBackendVar, StoreFile))
}

func (Store) GetCredentialsFile() string {
	return filepath.Join(EnvVars{}.GetDataFolder(), "credentials.json")
}

func (Store) GetSQLitePath() string {
	return filepath.Join(EnvVars{}.GetDataFolder(), "promptstudio.db")
}

func (Store) GetKeyringService() string {
	return GetEnv(keyringServiceVar, "com.promptstudio.client")
}
