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
	"testing"

	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/spec"
)

// testCalculator 建立一個只有中列一條線的算分器。
// 符號: W1(id=0, wild) / H1(id=1, 可計分) / L1(id=2, 零賠付)
func testCalculator() *ScreenCalculator {
	ss := &spec.SymbolSetting{
		SymbolUsedStr: []string{"W1", "H1", "L1"},
		Weights:       []int{1, 1, 1},
		PayTable: [][]int{
			{5, 10, 50},
			{3, 6, 20},
			{0, 0, 0},
		},
	}
	ls := &spec.LineSetting{
		LineTable: [][]int16{{1, 1, 1, 1, 1}},
	}
	return NewScreenCalculator(ss, ls)
}

// midRow 產生一張只有中列有意義的盤面，其餘格子填零賠付符號。
func midRow(vals ...int16) []int16 {
	screen := make([]int16, spec.GridCols*spec.GridRows)
	for i := range screen {
		screen[i] = 2
	}
	for col, v := range vals {
		screen[spec.GridCols+col] = v
	}
	return screen
}

func TestCalcFiveOfAKind(t *testing.T) {
	sc := testCalculator()
	sr := &buf.SpinResult{}

	sc.CalcScreen(midRow(1, 1, 1, 1, 1), sr)

	if sr.LineMult != 20 {
		t.Fatalf("expected line mult 20, got %d", sr.LineMult)
	}
	if len(sr.Details) != 1 {
		t.Fatalf("expected 1 detail, got %+v", sr.Details)
	}
	d := sr.Details[0]
	if d.LineID != 0 || d.SymbolID != 1 || d.Count != 5 || d.Mult != 20 {
		t.Fatalf("unexpected detail: %+v", d)
	}
	// 中列格子 5..9
	if sr.WinMask != 0x3E0 {
		t.Fatalf("expected win mask 0x3E0, got %#x", sr.WinMask)
	}
}

func TestCalcPrefixWildMergesIntoRun(t *testing.T) {
	sc := testCalculator()
	sr := &buf.SpinResult{}

	// W H H L L：base 為 H1，前綴百搭併入 → 3 連線
	sc.CalcScreen(midRow(0, 1, 1, 2, 2), sr)

	if sr.LineMult != 3 {
		t.Fatalf("expected line mult 3, got %d", sr.LineMult)
	}
	if len(sr.Details) != 1 || sr.Details[0].Count != 3 || sr.Details[0].SymbolID != 1 {
		t.Fatalf("unexpected details: %+v", sr.Details)
	}
}

func TestCalcWildExtendsMidRun(t *testing.T) {
	sc := testCalculator()
	sr := &buf.SpinResult{}

	// H W H L L：百搭代任延長 → 3 連線
	sc.CalcScreen(midRow(1, 0, 1, 2, 2), sr)

	if sr.LineMult != 3 {
		t.Fatalf("expected line mult 3, got %d", sr.LineMult)
	}
}

func TestCalcAllWildPaysWildTier(t *testing.T) {
	sc := testCalculator()
	sr := &buf.SpinResult{}

	sc.CalcScreen(midRow(0, 0, 0, 0, 0), sr)

	if sr.LineMult != 50 {
		t.Fatalf("expected wild 5-of-a-kind mult 50, got %d", sr.LineMult)
	}
	if len(sr.Details) != 1 || sr.Details[0].SymbolID != 0 || sr.Details[0].Count != 5 {
		t.Fatalf("unexpected details: %+v", sr.Details)
	}
}

func TestCalcBrokenRunNoPay(t *testing.T) {
	sc := testCalculator()
	sr := &buf.SpinResult{}

	// H H L H H：連線在第 3 軸中斷，長度 2 不派彩
	sc.CalcScreen(midRow(1, 1, 2, 1, 1), sr)

	if sr.LineMult != 0 || len(sr.Details) != 0 {
		t.Fatalf("expected no win, got mult=%d details=%+v", sr.LineMult, sr.Details)
	}
}

func TestCalcUnpaidBaseSymbol(t *testing.T) {
	sc := testCalculator()
	sr := &buf.SpinResult{}

	// base 為零賠付符號 L1，整線 0 分
	sc.CalcScreen(midRow(2, 2, 2, 2, 2), sr)

	if sr.LineMult != 0 || len(sr.Details) != 0 {
		t.Fatalf("expected no win, got mult=%d details=%+v", sr.LineMult, sr.Details)
	}
}

func TestCalcLinesIndependent(t *testing.T) {
	ss := &spec.SymbolSetting{
		SymbolUsedStr: []string{"W1", "H1", "L1"},
		Weights:       []int{1, 1, 1},
		PayTable: [][]int{
			{5, 10, 50},
			{3, 6, 20},
			{0, 0, 0},
		},
	}
	ls := &spec.LineSetting{
		LineTable: [][]int16{
			{0, 0, 0, 0, 0},
			{1, 1, 1, 1, 1},
		},
	}
	sc := NewScreenCalculator(ss, ls)
	sr := &buf.SpinResult{}

	screen := make([]int16, spec.GridCols*spec.GridRows)
	for i := range screen {
		screen[i] = 2
	}
	// 上列 3 連線、中列 5 連線，各線獨立計分
	screen[0], screen[1], screen[2] = 1, 1, 1
	for col := 0; col < spec.GridCols; col++ {
		screen[spec.GridCols+col] = 1
	}

	sc.CalcScreen(screen, sr)

	if sr.LineMult != 3+20 {
		t.Fatalf("expected line mult 23, got %d", sr.LineMult)
	}
	if len(sr.Details) != 2 {
		t.Fatalf("expected 2 details, got %+v", sr.Details)
	}
}
