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

package gen

import (
	"github.com/zintix-labs/pegdrop/sdk/core"
	"github.com/zintix-labs/pegdrop/spec"
)

// ScreenGenerator 保存生成盤面所需的所有狀態。
// 會快取權重查表與輸出緩衝，以避免重複配置與計算。
//
// 生成規則：每一軸獨立從符號權重池抽 3 格，共 5 軸構成 5x3 盤面。
// 抽樣彼此獨立、不保留任何跨次狀態，相同亂數序列必得相同盤面。
type ScreenGenerator struct {
	core          *core.Core
	SymbolSetting *spec.SymbolSetting
	Cols          int
	Rows          int
	// 盤面Buffer(避免重複new盤面)
	Screen []int16
}

// NewScreenGenerator 根據符號設定與核心亂數器建立生成器，
// 讓之後的生成流程可以免配置快速執行。
func NewScreenGenerator(core *core.Core, ss *spec.SymbolSetting) *ScreenGenerator {
	result := &ScreenGenerator{
		core:          core,
		SymbolSetting: ss,
		Cols:          spec.GridCols,
		Rows:          spec.GridRows,
	}
	result.Screen = make([]int16, result.Cols*result.Rows)
	return result
}

// GenScreen 生成盤面熱路徑函數。
// 回傳內部重用緩衝，呼叫端需在下一次生成前消費完畢。
func (sg *ScreenGenerator) GenScreen() []int16 {
	cols := sg.Cols
	rows := sg.Rows
	lut := sg.SymbolSetting.WeightLUT

	s := sg.Screen
	_ = s[(rows-1)*cols+(cols-1)] // BCE hint

	for col := range cols {
		for row := range rows {
			id := lut.Pick(sg.core)
			s[(row*cols)+col] = int16(id)
		}
	}
	return sg.Screen
}
