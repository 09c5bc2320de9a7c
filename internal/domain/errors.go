package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrOffline indicates a remote call was attempted without connectivity
	ErrOffline = errors.New("no network connection")

	// ErrAuthFailed indicates the remote rejected our credentials
	ErrAuthFailed = errors.New("remote credentials were rejected")

	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrBlobNotFound indicates a local blob is missing
	ErrBlobNotFound = errors.New("blob not found")
)

// RemoteFetchError wraps a failure while reading from the remote source.
type RemoteFetchError struct {
	Op  string // collection name or "version"
	Err error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("remote fetch %s: %v", e.Op, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// AssetDownloadError wraps a failure to download or store a single image.
type AssetDownloadError struct {
	URL string
	Err error
}

func (e *AssetDownloadError) Error() string {
	return fmt.Sprintf("asset download %s: %v", e.URL, e.Err)
}

func (e *AssetDownloadError) Unwrap() error { return e.Err }

// LocalPersistenceError wraps a failure writing to the local store.
type LocalPersistenceError struct {
	Key string
	Err error
}

func (e *LocalPersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *LocalPersistenceError) Unwrap() error { return e.Err }
