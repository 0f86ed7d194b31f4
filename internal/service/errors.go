package service

import "errors"

// ErrValidation marks a request rejected before touching storage. Storage
// level failure modes (not found, conflict, invalid state, insufficient
// stock) are the repo sentinels and pass through services unchanged.
var ErrValidation = errors.New("validation")
