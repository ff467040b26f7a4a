package spec

import (
	"fmt"

	"github.com/zintix-labs/pegdrop/errs"
)

// EffectType 觸發效果，由單次旋轉結果啟動、於下一次落球時消耗。
type EffectType int

const (
	EffectNone EffectType = iota
	EffectLeftWall
	EffectRightWall
	EffectExtraBallT1
	EffectExtraBallT2
)

var effectMap = map[string]EffectType{
	"left_wall":     EffectLeftWall,
	"right_wall":    EffectRightWall,
	"extra_ball_t1": EffectExtraBallT1,
	"extra_ball_t2": EffectExtraBallT2,
}

func ParseEffect(s string) (EffectType, bool) {
	e, ok := effectMap[s]
	return e, ok
}

// EffectCount 效果種類數（含 EffectNone），供統計端配置固定長度計數陣列。
const EffectCount = int(EffectExtraBallT2) + 1

var effectNames = [EffectCount]string{"none", "left_wall", "right_wall", "extra_ball_t1", "extra_ball_t2"}

func (e EffectType) String() string {
	if e < 0 || int(e) >= EffectCount {
		return "unknown"
	}
	return effectNames[e]
}

// TriggerRule 單條觸發規則：被檢查列上某符號出現達 Count 次即啟動 Effect。
// 規則彼此獨立，同一次旋轉可同時觸發多條。
type TriggerRule struct {
	SymbolStr string `yaml:"symbol"  json:"symbol"`
	Count     int    `yaml:"count"   json:"count"`
	EffectStr string `yaml:"effect"  json:"effect"`

	SymbolID int16      `yaml:"-" json:"-"`
	Effect   EffectType `yaml:"-" json:"-"`
}

// TriggerSetting 描述修飾效果的觸發規則。
//
// Row 為被檢查的盤面列（默認中列），所有規則共用同一列。
type TriggerSetting struct {
	Row      int16         `yaml:"row"    json:"row"`
	Rules    []TriggerRule `yaml:"rules"  json:"rules"`
	initFlag bool
}

// Init 解析規則並將符號名稱對應到符號 ID。
// 需在 SymbolSetting.Init 之後呼叫。
func (ts *TriggerSetting) Init(ss *SymbolSetting) error {
	if ts.initFlag {
		return nil
	}

	if ts.Row < 0 || ts.Row >= GridRows {
		return errs.NewFatal(fmt.Sprintf("trigger row %d out of range", ts.Row))
	}

	for i := range ts.Rules {
		rule := &ts.Rules[i]

		sym, ok := ParseSymbol(rule.SymbolStr)
		if !ok {
			return errs.NewFatal(fmt.Sprintf("trigger rule %d: unknown symbol %s", i, rule.SymbolStr))
		}
		rule.SymbolID = -1
		for id, used := range ss.SymbolUsed {
			if used == sym {
				rule.SymbolID = int16(id)
				break
			}
		}
		if rule.SymbolID < 0 {
			return errs.NewFatal(fmt.Sprintf("trigger rule %d: symbol %s not in symbol_used", i, rule.SymbolStr))
		}

		if rule.Count <= 0 || rule.Count > GridCols {
			return errs.NewFatal(fmt.Sprintf("trigger rule %d: invalid count %d", i, rule.Count))
		}

		eff, ok := ParseEffect(rule.EffectStr)
		if !ok {
			return errs.NewFatal(fmt.Sprintf("trigger rule %d: unknown effect %s", i, rule.EffectStr))
		}
		rule.Effect = eff
	}

	ts.initFlag = true
	return nil
}
