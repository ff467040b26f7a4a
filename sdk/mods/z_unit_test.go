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
	"testing"

	"github.com/zintix-labs/pegdrop/spec"
)

// testDetector 符號: W1=0 H1=1 H2=2 H3=3 L1=4，檢查中列。
func testDetector(t *testing.T) *Detector {
	t.Helper()
	ss := &spec.SymbolSetting{
		SymbolUsedStr: []string{"W1", "H1", "H2", "H3", "L1"},
		Weights:       []int{1, 1, 1, 1, 1},
		PayTable: [][]int{
			{5, 10, 50},
			{3, 6, 20},
			{2, 4, 10},
			{2, 4, 10},
			{1, 2, 8},
		},
	}
	if err := ss.Init(); err != nil {
		t.Fatalf("symbol setting init error: %v", err)
	}
	ts := &spec.TriggerSetting{
		Row: 1,
		Rules: []spec.TriggerRule{
			{SymbolStr: "H2", Count: 3, EffectStr: "left_wall"},
			{SymbolStr: "H3", Count: 2, EffectStr: "right_wall"},
			{SymbolStr: "W1", Count: 3, EffectStr: "extra_ball_t2"},
			{SymbolStr: "H1", Count: 3, EffectStr: "extra_ball_t1"},
		},
	}
	if err := ts.Init(ss); err != nil {
		t.Fatalf("trigger setting init error: %v", err)
	}
	return NewDetector(ts, ss.SymbolCount)
}

func screenWithMidRow(vals ...int16) []int16 {
	screen := make([]int16, spec.GridCols*spec.GridRows)
	for i := range screen {
		screen[i] = 4
	}
	for col, v := range vals {
		screen[spec.GridCols+col] = v
	}
	return screen
}

func TestDetectSingleRule(t *testing.T) {
	d := testDetector(t)

	fired := d.Detect(screenWithMidRow(2, 2, 2, 4, 4))
	if len(fired) != 1 || fired[0] != spec.EffectLeftWall {
		t.Fatalf("expected left_wall, got %v", fired)
	}

	// 次數不足不觸發
	fired = d.Detect(screenWithMidRow(2, 2, 4, 4, 4))
	if len(fired) != 0 {
		t.Fatalf("expected no trigger, got %v", fired)
	}
}

func TestDetectOtherRowsIgnored(t *testing.T) {
	d := testDetector(t)

	screen := screenWithMidRow(4, 4, 4, 4, 4)
	// 上列塞滿 H2，不在觸發列，不得觸發
	for col := 0; col < spec.GridCols; col++ {
		screen[col] = 2
	}
	if fired := d.Detect(screen); len(fired) != 0 {
		t.Fatalf("expected no trigger from non-trigger row, got %v", fired)
	}
}

func TestDetectMultipleRulesSameSpin(t *testing.T) {
	d := testDetector(t)

	fired := d.Detect(screenWithMidRow(2, 2, 2, 3, 3))
	if len(fired) != 2 {
		t.Fatalf("expected 2 effects, got %v", fired)
	}
	if fired[0] != spec.EffectLeftWall || fired[1] != spec.EffectRightWall {
		t.Fatalf("unexpected effects: %v", fired)
	}
}

func TestApplyWalls(t *testing.T) {
	ms := spec.ModState{}
	Apply(&ms, []spec.EffectType{spec.EffectLeftWall})
	if !ms.LeftWall || ms.RightWall {
		t.Fatalf("unexpected mod state: %+v", ms)
	}
	Apply(&ms, []spec.EffectType{spec.EffectRightWall})
	if !ms.LeftWall || !ms.RightWall {
		t.Fatalf("unexpected mod state: %+v", ms)
	}
}

func TestApplyExtraBallTierNeverDowngrades(t *testing.T) {
	ms := spec.ModState{}

	Apply(&ms, []spec.EffectType{spec.EffectExtraBallT1})
	if ms.ExtraBallTier != 1 {
		t.Fatalf("expected tier 1, got %d", ms.ExtraBallTier)
	}

	Apply(&ms, []spec.EffectType{spec.EffectExtraBallT2})
	if ms.ExtraBallTier != 2 {
		t.Fatalf("expected tier 2, got %d", ms.ExtraBallTier)
	}

	// t1 不得覆蓋既有的 t2
	Apply(&ms, []spec.EffectType{spec.EffectExtraBallT1})
	if ms.ExtraBallTier != 2 {
		t.Fatalf("expected tier to stay 2, got %d", ms.ExtraBallTier)
	}
}
