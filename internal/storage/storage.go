package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
)

// ContentTypeJSON is the content type of every archive object.
const ContentTypeJSON = "application/json"

var (
	// ErrNotFound is returned when the requested key does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrPreconditionFailed is returned when a conditional put loses to a
	// concurrent writer.
	ErrPreconditionFailed = errors.New("object precondition failed")
)

// Object is a stored blob and the version tag it was read at.
type Object struct {
	Data []byte
	ETag string
}

// PutOptions controls a write. IfMatch requires the current ETag to match;
// IfNoneMatch "*" requires the key to be absent.
type PutOptions struct {
	ContentType string
	IfMatch     string
	IfNoneMatch string
}

// ObjectStore is a key/value blob store.
type ObjectStore interface {
	Get(ctx context.Context, key string) (Object, error)
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
}

// ContentETag returns the quoted MD5 of data, the same form S3 uses for single-part objects.
func ContentETag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// CheckPreconditions validates opts against the current ETag ("" when absent).
func CheckPreconditions(current string, exists bool, opts PutOptions) error {
	if opts.IfNoneMatch == "*" && exists {
		return ErrPreconditionFailed
	}
	if opts.IfMatch != "" && (!exists || current != opts.IfMatch) {
		return ErrPreconditionFailed
	}
	return nil
}
