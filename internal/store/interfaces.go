package store

// BlobStore is the narrow capability the host grants us for persistence:
// read and write opaque blobs by key. Production uses the badger-backed
// implementation in store/kv; tests substitute an in-memory fake.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
