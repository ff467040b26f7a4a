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

package demo

import (
	"github.com/zintix-labs/pegdrop"
	"github.com/zintix-labs/pegdrop/catalog"
	"github.com/zintix-labs/pegdrop/defaults"
	"github.com/zintix-labs/pegdrop/demo/demo_configs"
	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/sdk/core"
	"github.com/zintix-labs/pegdrop/server/logger"
	"github.com/zintix-labs/pegdrop/server/svrcfg"
)

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

func NewServerConfig() (*svrcfg.SvrCfg, error) {
	lab, err := NewPegdrop()
	if err != nil {
		return nil, errs.NewFatal("new pegdrop failed:" + err.Error())
	}
	scfg := &svrcfg.SvrCfg{
		Log:      logger.NewDefaultAsyncLogger(logger.ModeDev),
		PoolSize: 1,
		Pegdrop:  lab,
	}
	return scfg, nil
}

// NewPegdrop 組裝內建機台 + demo 機台，供 dev panel 與調優工具使用。
func NewPegdrop() (*pegdrop.Pegdrop, error) {
	return pegdrop.NewAuto(
		core.Default(),
		pegdrop.Configs(defaults.FS, demo_configs.FS),
	)
}
