//go:build linux || darwin

// uname_unix.go reads kernel identity through the uname syscall.

package minisentry

import "golang.org/x/sys/unix"

// unameInfo returns the kernel's name, version, release, and machine
// fields, the same quartet uname -s/-v/-r/-m prints.
func unameInfo() (hostInfo, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return hostInfo{}, err
	}
	return hostInfo{
		sysname: utsField(uts.Sysname[:]),
		version: utsField(uts.Version[:]),
		release: utsField(uts.Release[:]),
		machine: utsField(uts.Machine[:]),
	}, nil
}

// utsField trims a NUL-terminated utsname field.
func utsField(field []byte) string {
	for i, c := range field {
		if c == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}
