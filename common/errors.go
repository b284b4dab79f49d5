package common

import (
	"errors"
)

var ErrEmptyStore = errors.New("no manifests registered")
var ErrBucketNotFound = errors.New("bucket not found")
