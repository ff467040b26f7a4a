package defaults

import (
	"embed"
)

// FS provides embedded default config YAMLs for external usage.
//
//go:embed *.yaml
var FS embed.FS

// Classic returns the built-in classic board config.
func Classic() []byte {
	b, err := FS.ReadFile("classic.yaml")
	if err != nil {
		panic(err)
	}
	return b
}
