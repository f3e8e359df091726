package host

import (
	"runtime"
	"slices"
	"strings"

	"billing-service/internal/application"
)

// Platform reports the capabilities configured for this installation.
type Platform struct {
	extensions []string
	version    string
}

var _ application.Platform = (*Platform)(nil)

// NewPlatform uses version when set, otherwise the Go runtime version.
func NewPlatform(extensions []string, version string) *Platform {
	if version == "" {
		version = strings.TrimPrefix(runtime.Version(), "go")
	}
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		exts = append(exts, strings.ToLower(e))
	}
	return &Platform{extensions: exts, version: version}
}

func (p *Platform) HasExtension(name string) bool {
	return slices.Contains(p.extensions, strings.ToLower(name))
}

func (p *Platform) RuntimeVersion() string { return p.version }
