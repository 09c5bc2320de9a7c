package domain

// Local storage keys owned by the sync coordinator.
const (
	KeyTopics        = "temas"
	KeySections      = "secciones"
	KeyPractices     = "practicas"
	KeySyncStatus    = "sync_status"
	KeyVersionMarker = "temas_version"
)

// KeyValueStore persists JSON-encodable values under string keys.
type KeyValueStore interface {
	// Get decodes the value stored at key into dest.
	// Returns false with a nil error when the key is absent.
	Get(key string, dest any) (bool, error)

	// Set encodes value and stores it at key.
	Set(key string, value any) error
}

// Entry is one key/value pair of a batch write.
type Entry struct {
	Key   string
	Value any
}

// BatchStore is implemented by stores that can write several keys atomically.
type BatchStore interface {
	SetBatch(entries []Entry) error
}

// BlobStore persists binary files under relative paths.
type BlobStore interface {
	// EnsureDir creates dir if needed. An existing directory is not an error.
	EnsureDir(dir string) error

	// WriteBlob stores data at path, replacing any previous content.
	WriteBlob(path string, data []byte) error

	// ReadBlob returns the content at path, or ErrBlobNotFound.
	ReadBlob(path string) ([]byte, error)
}
