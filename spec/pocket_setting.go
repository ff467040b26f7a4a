package spec

import (
	"fmt"
	"strconv"

	"github.com/zintix-labs/pegdrop/errs"
)

// Pocket 單一落袋：Bonus 袋啟動加倍回合，其餘袋直接給旋轉次數。
type Pocket struct {
	Bonus bool
	Spins int
}

// PocketSetting 描述底部落袋帶。
//
// Slots 內容為 "BONUS" 或旋轉次數字串（如 "5"），
// 袋位區域等寬並完整鋪滿盤底，袋數即為區域數。
type PocketSetting struct {
	Slots      []string `yaml:"slots"        json:"slots"`
	BonusSpins int      `yaml:"bonus_spins"  json:"bonus_spins"`
	Pockets    []Pocket `yaml:"-"            json:"-"`
	Count      int      `yaml:"-"            json:"-"`
	initFlag   bool
}

// Init 解析袋位標記並檢查設定。
func (ps *PocketSetting) Init() error {
	if ps.initFlag {
		return nil
	}

	if len(ps.Slots) == 0 {
		return errs.NewFatal("pocket slots is empty")
	}
	if ps.BonusSpins <= 0 {
		return errs.NewFatal("bonus_spins must be positive")
	}

	ps.Pockets = make([]Pocket, len(ps.Slots))
	for i, s := range ps.Slots {
		if s == "BONUS" {
			ps.Pockets[i] = Pocket{Bonus: true, Spins: ps.BonusSpins}
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return errs.NewFatal(fmt.Sprintf("pocket slot %d: invalid value %q", i, s))
		}
		ps.Pockets[i] = Pocket{Spins: n}
	}
	ps.Count = len(ps.Pockets)

	ps.initFlag = true
	return nil
}
