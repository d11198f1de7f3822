package platform

import (
	"os"
	"runtime"
	"strings"
)

type PlatformInfo struct {
	Name    string
	Version string
	Arch    string
}

func (p PlatformInfo) String() string {
	return p.Name + " " + p.Version + " (" + p.Arch + ")"
}

func GetPlatformInfo() PlatformInfo {
	return PlatformInfo{
		Name:    runtime.GOOS,
		Version: osVersion(runtime.GOOS),
		Arch:    runtime.GOARCH,
	}
}

func osVersion(osName string) string {
	if osName != "linux" {
		return "unknown"
	}
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "Unknown Linux Distribution"
	}
	return parseOSRelease(string(data))
}

// parseOSRelease prefers PRETTY_NAME and falls back to NAME plus VERSION_ID
func parseOSRelease(content string) string {
	fields := map[string]string{}
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, "\"")
	}

	if pretty := fields["PRETTY_NAME"]; pretty != "" {
		return pretty
	}
	if name := fields["NAME"]; name != "" {
		if version := fields["VERSION_ID"]; version != "" {
			return name + " " + version
		}
		return name
	}
	return "Unknown Linux Distribution"
}
