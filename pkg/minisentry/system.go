// system.go collects the host facts attached to every event: hostname,
// kernel identity, CPU architecture, build revision, and the ambient
// process environment.

package minisentry

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"
)

// releaseUnknown is reported when no release is configured and the binary
// carries no version control information.
const releaseUnknown = "unknown"

// hostInfo is the uname quartet: kernel name, version string, release,
// and machine architecture.
type hostInfo struct {
	sysname string
	version string
	release string
	machine string
}

// serverName returns the reporting host's name. An unresolvable hostname
// reports as empty rather than failing the capture.
func serverName() string {
	name, _ := os.Hostname()
	return name
}

// hostContexts builds the device and os blocks from kernel facts, falling
// back to the runtime's static strings when uname is unavailable.
func hostContexts() Contexts {
	info, err := unameInfo()
	if err != nil {
		info = hostInfo{sysname: runtime.GOOS, machine: runtime.GOARCH}
	}
	return Contexts{
		Device: DeviceContext{
			Type: "device",
			Arch: info.machine,
		},
		OS: OSContext{
			Type:          "os",
			Name:          info.sysname,
			Version:       info.version,
			KernelVersion: info.release,
		},
	}
}

// currentRelease resolves the build identifier: an explicit override wins,
// then the revision recorded in the binary's build info, then "unknown".
func currentRelease(override string) string {
	if override != "" {
		return override
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value
			}
		}
	}
	return releaseUnknown
}

// extraFromEnviron snapshots the process environment as the event's extra
// block. Variables whose name starts with reservedPrefix are excluded so
// the client's own configuration is never reported. The returned map is
// never nil: an empty environment still serializes as an empty object.
func extraFromEnviron(reservedPrefix string) map[string]string {
	environ := os.Environ()
	extra := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		if reservedPrefix != "" && strings.HasPrefix(key, reservedPrefix) {
			continue
		}
		extra[key] = value
	}
	return extra
}
