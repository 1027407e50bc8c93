//go:build !linux && !darwin

// uname_other.go stubs kernel identity on platforms without uname;
// callers fall back to the runtime's static strings.

package minisentry

import "errors"

var errUnameUnsupported = errors.New("minisentry: uname is not supported on this platform")

func unameInfo() (hostInfo, error) {
	return hostInfo{}, errUnameUnsupported
}
