// Package archive stores uploaded project archives for the reference
// backend. Archives are opaque blobs keyed by project id.
package archive

type Store interface {
	Put(projectID string, data []byte) error
	Get(projectID string) (data []byte, ok bool, err error)
}
