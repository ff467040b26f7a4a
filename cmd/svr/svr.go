// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zintix-labs/pegdrop"
	"github.com/zintix-labs/pegdrop/defaults"
	"github.com/zintix-labs/pegdrop/sdk/core"
	"github.com/zintix-labs/pegdrop/server"
	"github.com/zintix-labs/pegdrop/server/logger"
	"github.com/zintix-labs/pegdrop/server/svrcfg"
)

// This command is intentionally a "lab server" entrypoint for the pegdrop repo.
// It enables all developer endpoints by default.
// For production deployments, use a separate scaffold project.
func main() {
	cfg, err := loadConfigFromFlags()
	if err != nil {
		fmt.Println(err)
		return
	}
	server.Run(cfg)
}

type config struct {
	LogMode    string
	PoolSize   int
	OptimalDir string
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, error) {
	cfg := new(config)
	flag.StringVar(&cfg.LogMode, "log-mode", "ModeDev", "log mode: ModeDev|ModeProd|ModeSilence")
	flag.IntVar(&cfg.PoolSize, "pool", 3, "number of machine instances per game")
	flag.StringVar(&cfg.OptimalDir, "optimal", "", "dir of tuner artifacts (gacha/seed bank); empty disables")

	flag.Parse()

	log, _ := logger.NewAsync(4096, cfg.norm())

	lab, err := pegdrop.NewAuto(
		core.Default(),
		pegdrop.Configs(defaults.FS),
	)
	if err != nil {
		return nil, err
	}
	if cfg.OptimalDir != "" {
		lab.SetOptimalFS(os.DirFS(cfg.OptimalDir))
	}
	sCfg := &svrcfg.SvrCfg{
		Log:      log,
		PoolSize: cfg.PoolSize,
		Pegdrop:  lab,
	}
	return sCfg, nil
}

func (cfg *config) norm() logger.LogMode {
	switch cfg.LogMode {
	case "ModeDev":
		return logger.ModeDev
	case "ModeProd":
		return logger.ModeProd
	case "ModeSilence":
		return logger.ModeSilence
	default:
		return logger.ModeDev
	}
}
