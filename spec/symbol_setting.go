package spec

import (
	"fmt"

	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/sdk/sampler"
)

// payTiers 賠付表內部固定展開為 5 檔（連線長度 1~5），
// 設定檔僅填 3 檔（3/4/5 連線），前兩檔補零。
const payTiers = 5

// SymbolSetting 統整所有符號，並記錄衍生屬性（類型、權重表、賠付表等）。
//
// PayTable 每列為 [3連線, 4連線, 5連線] 的賠付倍數；
// Weights 為符號抽樣權重，Init 時展開為 O(1) 查表。
type SymbolSetting struct {
	SymbolUsedStr []string     `yaml:"symbol_used"  json:"symbol_used"`
	Weights       []int        `yaml:"weights"      json:"weights"`
	PayTable      [][]int      `yaml:"pay_table"    json:"pay_table"`
	SymbolUsed    []Symbol     `yaml:"-"            json:"-"`
	SymbolTypes   []SymbolType `yaml:"-"            json:"-"`
	SymbolCount   int          `yaml:"-"            json:"-"`
	PayTableFlat  []int        `yaml:"-"            json:"-"`
	PayTableIndex []int        `yaml:"-"            json:"-"`
	WeightLUT     sampler.LUT  `yaml:"-"            json:"-"`
	WildID        int16        `yaml:"-"            json:"-"`
	initFlag      bool
}

// Init 檢查設定並賦值
func (ss *SymbolSetting) Init() error {
	// 檢查初始化旗標
	if ss.initFlag {
		return nil
	}
	// 解析SymbolUsed
	if ss.SymbolUsed == nil {
		ss.SymbolUsed = make([]Symbol, len(ss.SymbolUsedStr))
		for id, str := range ss.SymbolUsedStr {
			su, ok := ParseSymbol(str)
			if !ok {
				return errs.NewFatal(fmt.Sprintf("symbol used has wrong elem %s", str))
			}
			ss.SymbolUsed[id] = su
		}
	}
	if len(ss.SymbolUsed) == 0 {
		return errs.NewFatal("symbol_used is empty")
	}
	if len(ss.SymbolUsed) != len(ss.PayTable) {
		return errs.NewFatal("len(symbol_used) != len(pay_table)")
	}
	if len(ss.SymbolUsed) != len(ss.Weights) {
		return errs.NewFatal("len(symbol_used) != len(weights)")
	}

	// 展開 PayTable 為 CSR：每符號固定 5 檔，計分端以 base+(len-1) 直接索引
	ss.PayTableFlat = make([]int, len(ss.SymbolUsed)*payTiers)
	ss.PayTableIndex = make([]int, len(ss.SymbolUsed))
	write := 0
	for rowIdx, payRow := range ss.PayTable {
		if len(payRow) != 3 {
			return errs.NewFatal("pay_table row must have 3 tiers (3/4/5 of a kind)")
		}
		ss.PayTableIndex[rowIdx] = write
		for i, v := range payRow {
			if v < 0 {
				return errs.NewFatal("pay_table has negative payout")
			}
			ss.PayTableFlat[write+2+i] = v
		}
		write += payTiers
	}

	// 賦值
	ss.WildID = -1
	for id, s := range ss.SymbolUsed {
		st := s.GetSymbolType()
		ss.SymbolTypes = append(ss.SymbolTypes, st)
		if st == SymbolTypeWild {
			if ss.WildID >= 0 {
				return errs.NewFatal("more than one wild symbol configured")
			}
			ss.WildID = int16(id)
		}
	}
	ss.SymbolCount = len(ss.SymbolUsed)

	// 權重抽樣表
	for _, w := range ss.Weights {
		if w <= 0 {
			return errs.NewFatal("symbol weights must be positive")
		}
	}
	ss.WeightLUT = sampler.BuildLUT(ss.Weights)

	// set 初始化旗標
	ss.initFlag = true
	return nil
}

// Symbol 採「系列字母 + 序號」的命名：
//
//	Z 系列：None（無得分）
//	S 系列：Special（特殊）
//	C 系列：Scatter（分散）
//	W 系列：Wild（百搭）
//	H 系列：High（高分）
//	L 系列：Low（低分）
//
// 每個系列各佔 9 個連續編號，序號 1~9。
type Symbol int

const symbolSeries = "ZSCWHL"

const (
	symbolSeriesSize = 9
	symbolTotal      = len(symbolSeries) * symbolSeriesSize
)

// ParseSymbol 解析「字母+序號」形式的符號名稱，如 "W1"、"H3"、"L2"。
func ParseSymbol(s string) (Symbol, bool) {
	if len(s) != 2 {
		return 0, false
	}
	series := -1
	for i := 0; i < len(symbolSeries); i++ {
		if s[0] == symbolSeries[i] {
			series = i
			break
		}
	}
	if series < 0 {
		return 0, false
	}
	if s[1] < '1' || s[1] > '9' {
		return 0, false
	}
	return Symbol(series*symbolSeriesSize + int(s[1]-'1')), true
}

// String 回傳符號的設定檔名稱。
func (s Symbol) String() string {
	if s < 0 || int(s) >= symbolTotal {
		return "??"
	}
	return string([]byte{symbolSeries[int(s)/symbolSeriesSize], byte('1' + int(s)%symbolSeriesSize)})
}

type SymbolType int

const (
	SymbolTypeNone SymbolType = iota
	SymbolTypeSpecial
	SymbolTypeScatter
	SymbolTypeWild
	SymbolTypeHigh
	SymbolTypeLow
)

// GetSymbolType 依符號系列回傳對應的 SymbolType。
func (s Symbol) GetSymbolType() SymbolType {
	if s < 0 || int(s) >= symbolTotal {
		return SymbolTypeNone
	}
	return SymbolType(int(s) / symbolSeriesSize)
}

// IsSymbolWild 回傳符號是否屬於 Wild 符號。
func IsSymbolWild(s Symbol) bool { return s.GetSymbolType() == SymbolTypeWild }

// IsSymbolHigh 回傳符號是否屬於高分符號。
func IsSymbolHigh(s Symbol) bool { return s.GetSymbolType() == SymbolTypeHigh }

// IsSymbolLow 回傳符號是否屬於低分符號。
func IsSymbolLow(s Symbol) bool { return s.GetSymbolType() == SymbolTypeLow }
