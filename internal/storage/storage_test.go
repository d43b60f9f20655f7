package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPreconditions(t *testing.T) {
	etag := ContentETag([]byte("[]"))

	assert.NoError(t, CheckPreconditions("", false, PutOptions{}))
	assert.NoError(t, CheckPreconditions(etag, true, PutOptions{}))
	assert.NoError(t, CheckPreconditions("", false, PutOptions{IfNoneMatch: "*"}))
	assert.ErrorIs(t, CheckPreconditions(etag, true, PutOptions{IfNoneMatch: "*"}), ErrPreconditionFailed)
	assert.NoError(t, CheckPreconditions(etag, true, PutOptions{IfMatch: etag}))
	assert.ErrorIs(t, CheckPreconditions(etag, true, PutOptions{IfMatch: `"other"`}), ErrPreconditionFailed)
	assert.ErrorIs(t, CheckPreconditions("", false, PutOptions{IfMatch: etag}), ErrPreconditionFailed)
}

func TestContentETagStable(t *testing.T) {
	assert.Equal(t, ContentETag([]byte("abc")), ContentETag([]byte("abc")))
	assert.NotEqual(t, ContentETag([]byte("abc")), ContentETag([]byte("abd")))
	assert.Equal(t, `"900150983cd24fb0d6963f7d28e17f72"`, ContentETag([]byte("abc")))
}
