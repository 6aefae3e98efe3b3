package mqtt

import "errors"

// ErrPublishTimeout indicates the broker didn't acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt: publish timeout")
