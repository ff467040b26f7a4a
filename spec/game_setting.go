package spec

import (
	"fmt"
	"slices"

	"github.com/zintix-labs/pegdrop/errs"
)

// GameSetting 包含啟動一個機台所需的所有高階設定。
//
// 金額一律為整數分（cent），BetUnits 為可選的押注檔位。
type GameSetting struct {
	GameName    string         `yaml:"game_name"     json:"game_name"`
	GameID      GID            `yaml:"game_id"       json:"game_id"`
	BetUnits    []int          `yaml:"bet_units"     json:"bet_units"`
	InitBalance int            `yaml:"init_balance"  json:"init_balance"`
	BonusMult   int            `yaml:"bonus_mult"    json:"bonus_mult"`
	RNG         string         `yaml:"rng"           json:"rng"`
	Symbols     SymbolSetting  `yaml:"symbols"       json:"symbols"`
	Lines       LineSetting    `yaml:"lines"         json:"lines"`
	Pockets     PocketSetting  `yaml:"pockets"       json:"pockets"`
	Board       BoardSetting   `yaml:"board"         json:"board"`
	Triggers    TriggerSetting `yaml:"triggers"      json:"triggers"`
	Optimal     OptimalSetting `yaml:"optimal"       json:"optimal"`
}

// init
func (gs *GameSetting) init() error {
	if err := gs.Symbols.Init(); err != nil {
		return err
	}
	if err := gs.Lines.Init(); err != nil {
		return err
	}
	if err := gs.Pockets.Init(); err != nil {
		return err
	}
	if err := gs.Board.Init(); err != nil {
		return err
	}
	if err := gs.Triggers.Init(&gs.Symbols); err != nil {
		return err
	}
	return gs.valid()
}

// valid 執行最基本的跨欄位檢查，如需更多驗證可在此擴充。
func (gs *GameSetting) valid() error {

	// valid BetUnits
	if len(gs.BetUnits) == 0 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:empty bet_units", gs.GameName))
	}
	for _, b := range gs.BetUnits {
		if b < 1 {
			return errs.NewFatal(fmt.Sprintf("game_name: %s err:invalid bet unit", gs.GameName))
		}
	}

	if gs.InitBalance < 0 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:negative init_balance", gs.GameName))
	}

	if gs.BonusMult < 1 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:bonus_mult must be >= 1", gs.GameName))
	}

	switch gs.RNG {
	case "", "pcg64", "pcg32":
	default:
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:unknown rng %q", gs.GameName, gs.RNG))
	}

	if err := gs.Optimal.valid(); err != nil {
		return err
	}

	return nil
}

// MaxBetUnit 回傳最大的押注檔位。
func (gs *GameSetting) MaxBetUnit() int {
	return slices.Max(gs.BetUnits)
}

// ValidBetUnit 回傳押注值是否屬於設定檔位之一。
func (gs *GameSetting) ValidBetUnit(bet int) bool {
	return slices.Contains(gs.BetUnits, bet)
}
