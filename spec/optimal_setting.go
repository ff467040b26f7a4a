package spec

import (
	"fmt"

	"github.com/zintix-labs/pegdrop/errs"
)

// OptimalSetting 宣告調優產物（gacha 與 seed bank）的載入路徑。
//
// 路徑為相對於注入的 optimal fs.FS 的檔名，與 BetUnits 一一對應：
// 第 i 個押注檔位使用 Gachas[i] 與 SeedBank[i]。
type OptimalSetting struct {
	UseOptimal bool     `yaml:"use_optimal" json:"use_optimal"`
	Gachas     []string `yaml:"gachas"      json:"gachas"`
	SeedBank   []string `yaml:"seed_bank"   json:"seed_bank"`
}

// valid 檢查調優設定。
// 規則：
//  1. UseOptimal 為 true 時，gachas 與 seed_bank 皆不可為空。
//  2. gachas 與 seed_bank 長度必須一致（1:1 對應）。
func (s OptimalSetting) valid() error {
	if !s.UseOptimal {
		return nil
	}

	if len(s.Gachas) == 0 {
		return errs.NewFatal("optimal: gachas must not be empty when use_optimal=true")
	}
	if len(s.SeedBank) == 0 {
		return errs.NewFatal("optimal: seed_bank must not be empty when use_optimal=true")
	}
	if len(s.Gachas) != len(s.SeedBank) {
		return errs.NewFatal(fmt.Sprintf(
			"optimal: gachas and seed_bank length mismatch (gachas=%d seed_bank=%d)",
			len(s.Gachas), len(s.SeedBank)))
	}
	return nil
}
