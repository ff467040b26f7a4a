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

// Package pegdrop 提供 Pegdrop 引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Pegdrop 是一個兩段式機率遊戲 runtime：先是釘板落球（物理解算決定落袋），
// 再依落袋結果進行盤面旋轉會期（加權盤面生成 + 連線派彩 + 修飾觸發）。
// 它把下列兩個必需的地基組裝在一起，並提供建立 Machine 的入口：
//  1. Catalog：遊戲目錄（Single Source of Truth / SSOT），定義有哪些遊戲、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數核心工廠，保證可重現（reproducible）與可審計（auditable）。
//
// 設計重點：
//   - Pegdrop 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//   - Machine 是對外提供 Drop 的最小單位；遊戲邏輯的資料結構都在 sdk 內。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Pegdrop 建立 Machine，Machine 對外提供 Drop。
//   - 模擬器（sim）：由 Pegdrop 建立多台 Machine 進行大量模擬。
package pegdrop

import (
	"crypto/rand"
	"fmt"
	"io/fs"
	"math"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/pegdrop/catalog"
	"github.com/zintix-labs/pegdrop/defaults"
	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/sdk/core"
	"github.com/zintix-labs/pegdrop/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 為什麼是 fs.FS：
//   - 你可以用 go:embed 把 configs 直接編進 binary（部署最穩定，不依賴工作目錄）。
//   - 也可以用 os.DirFS 在本機開發時讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Pegdrop 是「組裝器（assembler）」與「運行入口（runtime entry）」。
//
// 使用流程通常分成兩階段：
//   - 註冊/組裝階段（registration/build）：建立 catalog、檢查重複與缺漏。
//   - 執行階段（runtime）：依據遊戲 ID 產生 Machine，並在 Machine 上執行 Drop。
//
// 重要設計原則：
//   - Catalog 的 ID 唯一性只保證在「同一個 Pegdrop instance」內。
//   - runtime 一旦開始（例如已建立 Machine 並對外服務），不建議再變更 Catalog。
//   - 各遊戲可在設定檔以 rng 欄位選擇 PRNG 實作（pcg64/pcg32）；
//     未指定時使用 New() 注入的預設工廠。
type Pegdrop struct {
	cat   *catalog.Catalog
	cf    core.PRNGFactory
	sum   []catalog.Summary
	optFS fs.FS // 調優產物（gacha/seed bank）的檔案來源；nil 表示不啟用
}

// SetOptimalFS 注入調優產物（optimizer.Tuner.Save 的輸出）的檔案來源。
//
// 只有設定檔宣告 optimal.use_optimal=true 的遊戲會載入；
// 請在建立 Machine / BuildRuntime 之前呼叫。
func (p *Pegdrop) SetOptimalFS(fsys fs.FS) {
	p.optFS = fsys
}

// New 建立一個 Pegdrop instance。
//
// 這是「組裝階段（registration/build）」的入口：
//   - 會建立 Catalog（同時做檔名存在性/重複性檢查，避免 runtime 才爆）。
//   - 會保存 PRNGFactory，確保由這個 Pegdrop 建出來的 Machine 在 RNG 行為上具有一致性。
//
// 參數要求（是合約的一部分）：
//   - cf 不能為 nil：沒有 RNG 工廠就無法建立可重現/可審計的核心。
//   - cfgs 至少一個：沒有設定檔來源，Catalog 無法解析 GameSetting。
func New(cf core.PRNGFactory, cfgs []fs.FS) (*Pegdrop, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Pegdrop{
		cat: cata,
		cf:  cf,
	}, nil
}

// NewAuto 建立一個直接進入執行階段的 Pegdrop instance。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS) (*Pegdrop, error) {
	pd, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := pd.RegisterAll(); err != nil {
		return nil, err
	}
	pd.Freeze()
	return pd, nil
}

// Default 以內嵌的預設設定與 PCG64 建立可直接使用的 Pegdrop instance。
func Default() (*Pegdrop, error) {
	return NewAuto(core.Default(), Configs(defaults.FS))
}

func (p *Pegdrop) Register(ents ...catalog.Entry) error {
	return p.cat.Register(ents...)
}

// RegisterAll
//
// 會掃描 catalog 持有的設定檔來源（fs.FS），把所有可辨識的設定檔（.yaml/.yml/.json）嘗試解析成
// *spec.GameSetting，並用設定檔內宣告的 GameID/GameName 產生對應的 catalog.Entry 來批次註冊。
//
// 行為特性（重要）：
//  1. Fail-fast：任何一個檔案讀取/解析/基本檢查失敗，都會立刻回傳 error（不會忽略、也不會繼續掃完）。
//  2. 原子性：只有當「全部檔案」都成功解析並通過基本檢查時，才會呼叫 Register(...) 一次性寫入。
//     因此不會出現只註冊了一半、導致 catalog 處於半完成狀態的情況。
//  3. 穩定性：會依檔名排序後再處理，確保行為 determinism（方便重現與除錯）。
func (p *Pegdrop) RegisterAll() error {
	cfgs := p.cat.Cfg()
	sources := cfgs.Sources()
	if len(sources) == 0 {
		return errs.NewFatal("configs required")
	}

	entries := make([]catalog.Entry, 0, 64)
	seenID := map[spec.GID]string{}
	seenName := map[string]string{}

	for _, src := range sources {
		walkErr := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("configs must be flat (no subdir): %q", path))
			}

			base := filepath.Base(path)
			if strings.Contains(path, "/") && path != base {
				return errs.NewFatal(fmt.Sprintf("configs must be flat (nested path): %q", path))
			}
			if strings.HasPrefix(base, ".") {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(base))
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				return nil
			}

			raw, rerr := fs.ReadFile(src, path)
			if rerr != nil {
				return errs.NewFatal(fmt.Sprintf("read config failed: %s", base))
			}

			var (
				gs   *spec.GameSetting
				gerr error
			)
			switch ext {
			case ".yaml", ".yml":
				gs, gerr = spec.GetGameSettingByYAML(raw)
			case ".json":
				gs, gerr = spec.GetGameSettingByJSON(raw)
			default:
				return errs.NewFatal(fmt.Sprintf("unsupported config format: %q", base))
			}
			if gerr != nil {
				return errs.NewFatal(fmt.Sprintf("parse gamesetting failed: %s (%v)", base, gerr))
			}

			name := strings.TrimSpace(gs.GameName)
			if name == "" {
				return errs.NewFatal(fmt.Sprintf("game name required: %s", base))
			}

			id := gs.GameID
			if prev, ok := seenID[id]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate game id: %d (config=%s and %s)", id, prev, base))
			}
			if _, ok := p.cat.GetByID(id); ok {
				return errs.NewFatal(fmt.Sprintf("game id already registered: %d (config=%s)", id, base))
			}
			seenID[id] = base

			nameKey := strings.ToLower(name)
			if prev, ok := seenName[nameKey]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate game name: %s (config=%s and %s)", nameKey, prev, base))
			}
			if _, ok := p.cat.GetByName(name); ok {
				return errs.NewFatal(fmt.Sprintf("game name already registered: %s (config=%s)", name, base))
			}
			seenName[nameKey] = base

			entries = append(entries, catalog.Entry{
				GID:        id,
				Name:       name,
				ConfigName: base,
			})
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}

	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	return p.cat.Register(entries...)
}

func (p *Pegdrop) Freeze() {
	p.cat.Freeze()
}

func (p *Pegdrop) EntryById(id spec.GID) (catalog.Entry, bool) {
	return p.cat.GetByID(id)
}

func (p *Pegdrop) EntryByName(name string) (catalog.Entry, bool) {
	return p.cat.GetByName(name)
}

func (p *Pegdrop) IDs() []spec.GID {
	return p.cat.IDs()
}

func (p *Pegdrop) All() []catalog.Entry {
	return p.cat.All()
}

func (p *Pegdrop) Summary() ([]catalog.Summary, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if p.sum != nil {
		return p.sum, nil
	}
	ids := p.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		gs, err := p.cat.GameSettingById(id)
		if err != nil {
			return nil, errs.NewFatal("parse game setting failed")
		}
		cs = append(cs, catalog.Summary{
			GID:      id,
			Name:     gs.GameName,
			RNG:      gs.RNG,
			BetUnits: gs.BetUnits,
			Pockets:  gs.Pockets.Slots,
		})
	}
	p.sum = cs
	return p.sum, nil
}

// NewMachine 依據 Catalog 內的遊戲 ID 建立一台 Machine。
//
// 行為：
//  1. 由 Catalog 取得對應的 GameSetting（通常來自 fs.FS 內的 YAML/JSON）。
//  2. 依設定檔的 rng 欄位選擇 PRNG 工廠（seed 由 crypto/rand 產生）。
//
// isSim 用於區分「模擬/分析」與「對外服務」的執行模式。
//
// 注意：seed 會被記錄在 Machine 內（initseed），用於追溯/重現；
// 真正的可審計能力以 Core 的 Snapshot/Restore 合約為準。
func (p *Pegdrop) NewMachine(id spec.GID, isSim bool) (*Machine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := p.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newMachine(gs, p.factoryFor(gs), isSim, p.optFS)
}

// NewMachineWithSeed 與 NewMachine 相同，但由呼叫端指定初始 seed。
//
// 使用情境：
//   - 可重現的測試：同一份設定 + 同一個 seed，應產生一致的亂數序列。
//
// 注意：seed 只是「出生入口」。若要在任意時間點完整重現，請使用 Core 的 Snapshot/Restore。
func (p *Pegdrop) NewMachineWithSeed(id spec.GID, seed int64, isSim bool) (*Machine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := p.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(gs, p.factoryFor(gs), seed, isSim, p.optFS)
}

// NewCore 以預設 PRNG 工廠建立一顆獨立的亂數核心。
// 供調優/分析工具使用：與任何機台的核心互不干擾。
func (p *Pegdrop) NewCore(seed int64) (*core.Core, error) {
	if p.cf == nil {
		return nil, errs.NewFatal("prng factory is nil")
	}
	return core.New(p.cf.New(seed)), nil
}

func (p *Pegdrop) NewMachineByJSON(raw []byte, seed int64) (*Machine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newMachineWithSeed(cfg, p.factoryFor(cfg), seed, true, p.optFS)
}

func (p *Pegdrop) NewMachineByYAML(raw []byte, seed int64) (*Machine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newMachineWithSeed(cfg, p.factoryFor(cfg), seed, true, p.optFS)
}

func (p *Pegdrop) validCfg(cfg *spec.GameSetting) error {
	ent, ok := p.cat.GetByID(cfg.GameID)
	if !ok {
		return errs.NewWarn("gid not exist")
	}
	ent2, ok := p.cat.GetByName(cfg.GameName)
	if !ok {
		return errs.NewWarn("game name not exist")
	}
	if ent.GID != ent2.GID {
		return errs.NewWarn("game id is not matched game name")
	}
	return nil
}

func (p *Pegdrop) NewSimulator(id spec.GID) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := p.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(gs, p.factoryFor(gs))
}

func (p *Pegdrop) NewSimulatorWithSeed(id spec.GID, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	gs, err := p.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(gs, p.factoryFor(gs), seed)
}

// NewDevSimulator 建立 Dev 模式專用的單線模擬器（可審計、可重現）。
func (p *Pegdrop) NewDevSimulator(id spec.GID, seed int64) (*DevSimulator, error) {
	sim, err := p.NewSimulatorWithSeed(id, seed)
	if err != nil {
		return nil, err
	}
	return &DevSimulator{sim: sim, m: sim.mBuf[0]}, nil
}

func (p *Pegdrop) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, p.factoryFor(cfg), seed)
}

func (p *Pegdrop) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetGameSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, p.factoryFor(cfg), seed)
}

// BuildRuntime 為每個已註冊遊戲建立機台池，進入對外服務模式。
func (p *Pegdrop) BuildRuntime(poolSize int) (*DropRuntime, error) {
	// 進入 runtime 前，catalog 必須 Freeze
	p.Freeze()

	ids := p.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no games registered")
	}

	rt := &DropRuntime{
		pd:       p,
		pools:    make(map[spec.GID]*MachinePool, len(ids)),
		ids:      ids,
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")

	// 先全建好（fail-fast）
	for _, id := range ids {
		gs, err := p.cat.GameSettingById(id)
		if err != nil {
			return nil, err
		}

		seed, _ := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		mp, err := newMachinePool(rt.poolSize, gs, p.factoryFor(gs), seed.Int64(), p.optFS)
		if err != nil {
			return nil, err
		}
		rt.pools[id] = mp
	}
	return rt, nil
}

// factoryFor 依設定檔選擇 PRNG 工廠；未指定時用預設工廠。
func (p *Pegdrop) factoryFor(gs *spec.GameSetting) core.PRNGFactory {
	switch gs.RNG {
	case "pcg32":
		return core.Fast32()
	case "pcg64":
		return core.Default()
	default:
		return p.cf
	}
}
