package main

import (
	"embed"
)

// OptCfg provides the embedded tuner configuration.
//
//go:embed opt_cfg.yaml
var OptCfg embed.FS
