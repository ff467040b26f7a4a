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

package mods

import (
	"github.com/zintix-labs/pegdrop/spec"
)

// Detector 掃描盤面的觸發列並判定修飾效果。
//
// 只檢查設定列（默認中列）上各符號的出現次數，規則彼此獨立：
// 同一次旋轉可同時觸發牆效果與加球檔位。
type Detector struct {
	setting *spec.TriggerSetting
	counts  []int              // 符號計數暫存
	fired   []spec.EffectType  // 觸發結果暫存
	rowBase int16
}

// NewDetector 建立觸發判定器並預配暫存。
func NewDetector(ts *spec.TriggerSetting, symbolCount int) *Detector {
	return &Detector{
		setting: ts,
		counts:  make([]int, symbolCount),
		fired:   make([]spec.EffectType, 0, len(ts.Rules)),
		rowBase: ts.Row * spec.GridCols,
	}
}

// Detect 回傳本次盤面觸發的效果列表。
// 回傳內部重用緩衝，呼叫端需在下一次判定前消費完畢。
func (d *Detector) Detect(screen []int16) []spec.EffectType {
	for i := range d.counts {
		d.counts[i] = 0
	}
	for col := int16(0); col < spec.GridCols; col++ {
		d.counts[screen[d.rowBase+col]]++
	}

	d.fired = d.fired[:0]
	for i := range d.setting.Rules {
		rule := &d.setting.Rules[i]
		if d.counts[rule.SymbolID] >= rule.Count {
			d.fired = append(d.fired, rule.Effect)
		}
	}
	return d.fired
}

// Apply 將觸發效果套用到修飾狀態。
//
// 加球檔位只升不降：t1 不會覆蓋既有的 t2。
func Apply(ms *spec.ModState, effects []spec.EffectType) {
	for _, e := range effects {
		switch e {
		case spec.EffectLeftWall:
			ms.LeftWall = true
		case spec.EffectRightWall:
			ms.RightWall = true
		case spec.EffectExtraBallT2:
			ms.ExtraBallTier = 2
		case spec.EffectExtraBallT1:
			if ms.ExtraBallTier < 1 {
				ms.ExtraBallTier = 1
			}
		}
	}
}
