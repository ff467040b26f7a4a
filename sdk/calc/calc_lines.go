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

package calc

import (
	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/spec"
)

// SymbolMask 使用 uint64 以支援最多 64 種不同的圖標
// 使用方式為將圖標的索引位置對應到遮罩的位元位置
// 例如 : 若圖標索引為 3，則對應的遮罩位元為 1 << 3
type SymbolMask = uint64

// ScreenCalculator 負責根據盤面計算各線輸贏。
//
// 連線規則：
//   - 一律由最左軸（reel 0）起算，不支援反向或中段起算。
//   - base 為線上第一個非百搭符號；前綴百搭併入 base 連線。
//   - 整線皆百搭時，以百搭自身的 5 連線檔派彩。
//   - 連線長度達 3 才派彩，各線獨立、可重疊格子。
type ScreenCalculator struct {
	// 讀取自設定檔
	SymbolSetting *spec.SymbolSetting
	LineSetting   *spec.LineSetting

	// 預處理資料(快取)
	Cols int
	Rows int

	wildMask      SymbolMask // Wild符號遮罩
	paidMask      SymbolMask // 具有派彩的符號遮罩
	WildID        int16
	PayTableFlat  []int // 平坦化的派彩表 (重複使用)
	PayTableIndex []int // 派彩表索引 (重複使用)

	LineCount      int
	LineTableFlat  []int16 // 平坦化的線表（格子索引）
	LineTableIndex []int
}

// NewScreenCalculator 建立算分器並完成快取預處理。
func NewScreenCalculator(ss *spec.SymbolSetting, ls *spec.LineSetting) *ScreenCalculator {
	sc := &ScreenCalculator{
		SymbolSetting: ss,
		LineSetting:   ls,
	}
	sc.init()
	return sc
}

// CalcScreen 逐線計算盤面倍數並寫入 SpinResult。
//
// 純函數語意：相同盤面必得相同線倍數與中獎格集合。
// 倍數未乘押注與加倍，由呼叫端結算。
func (sc *ScreenCalculator) CalcScreen(screen []int16, sr *buf.SpinResult) {
	// 沒有可計分圖標，直接回傳空結果
	if sc.paidMask == 0 && sc.wildMask == 0 {
		return
	}

	cols := sc.Cols
	flat := sc.LineTableFlat
	starts := sc.LineTableIndex

	// 局部快取
	wildMask := sc.wildMask
	paidMask := sc.paidMask
	payFlat := sc.PayTableFlat
	payIdx := sc.PayTableIndex

	// 逐線
	for lineIdx := 0; lineIdx < sc.LineCount; lineIdx++ {
		start := starts[lineIdx]
		line := flat[start : start+cols] // 固定長度，BCE 友善

		// ── 前綴百搭長度 ──
		wildRun := 0
		for wildRun < cols && wildMask&(1<<uint(screen[line[wildRun]])) != 0 {
			wildRun++
		}

		var sym int16
		var run int
		if wildRun == cols {
			// 整線百搭：以百搭自身的最長連線檔派彩
			sym = sc.WildID
			run = cols
		} else {
			// base 為首個非百搭符號；不可計分則此線 0 分
			sym = screen[line[wildRun]]
			if paidMask&(1<<uint(sym)) == 0 {
				continue
			}
			// 前綴百搭併入連線，之後允許同符號或百搭代任延長
			run = wildRun + 1
			for pos := wildRun + 1; pos < cols; pos++ {
				s := screen[line[pos]]
				if s == sym || wildMask&(1<<uint(s)) != 0 {
					run++
					continue
				}
				break
			}
		}

		// ── 查表（CSR：base + (len-1)；長度不足 3 查到 0）──
		mult := payFlat[payIdx[sym]+(run-1)]
		if mult > 0 {
			sr.RecordLine(lineIdx, sym, run, mult, line[:run])
		}
	}
}

// ============================================================
// ** 以下內部方法 **
// ============================================================

// init 初始化算分器的快取資料
func (sc *ScreenCalculator) init() {
	_ = sc.SymbolSetting.Init()
	_ = sc.LineSetting.Init()

	sc.Cols = spec.GridCols
	sc.Rows = spec.GridRows

	// wildMask : Wild符號遮罩
	// paidMask : 具有派彩的符號遮罩
	for i, st := range sc.SymbolSetting.SymbolTypes {
		if st == spec.SymbolTypeWild {
			sc.wildMask |= (1 << uint(i))
		}
		arr := sc.SymbolSetting.PayTable[i]
		for _, v := range arr {
			if v > 0 {
				sc.paidMask |= (1 << uint(i))
				break
			}
		}
	}
	sc.WildID = sc.SymbolSetting.WildID
	sc.PayTableFlat = sc.SymbolSetting.PayTableFlat
	sc.PayTableIndex = sc.SymbolSetting.PayTableIndex

	sc.LineCount = sc.LineSetting.LineCount
	sc.LineTableFlat = sc.LineSetting.LineTableFlat
	sc.LineTableIndex = sc.LineSetting.LineTableIndex
}
