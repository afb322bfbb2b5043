package badger

import "github.com/poiesic/eventsift/storage"

// NewMemoryLedger creates an in-memory run ledger for testing.
// Caller must close the ledger when done.
func NewMemoryLedger() (storage.RunLedger, error) {
	return OpenRunLedger("", true)
}
