package store

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// DialectorOpener is a function that returns a gorm.Dialector for a DSN.
type DialectorOpener = func(string) gorm.Dialector

var (
	registryMu sync.RWMutex
	openers    = make(map[string]DialectorOpener)
)

// Register adds a storage backend to the registry.
func Register(name string, open DialectorOpener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	openers[name] = open
}

func opener(name string) (DialectorOpener, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	open, ok := openers[name]
	if !ok {
		return nil, fmt.Errorf("store: unknown storage backend %q", name)
	}
	return open, nil
}
