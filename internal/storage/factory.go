package storage

import (
	"fmt"
	"os"
)

// DefaultStoreKind picks the backend from HIDESEEK_STORE, falling back to memory.
func DefaultStoreKind() string {
	if kind := os.Getenv("HIDESEEK_STORE"); kind != "" {
		return kind
	}
	return "memory"
}

func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
