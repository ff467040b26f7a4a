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

package spec

import (
	"strings"
	"testing"
)

func TestParseSymbol(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		kind SymbolType
	}{
		{"W1", true, SymbolTypeWild},
		{"H3", true, SymbolTypeHigh},
		{"L2", true, SymbolTypeLow},
		{"C1", true, SymbolTypeScatter},
		{"Z9", true, SymbolTypeNone},
		{"X1", false, SymbolTypeNone},
		{"W0", false, SymbolTypeNone},
		{"W", false, SymbolTypeNone},
		{"w1", false, SymbolTypeNone},
		{"H10", false, SymbolTypeNone},
	}
	for _, c := range cases {
		s, ok := ParseSymbol(c.in)
		if ok != c.ok {
			t.Fatalf("ParseSymbol(%q) ok=%v, want %v", c.in, ok, c.ok)
		}
		if !ok {
			continue
		}
		if s.GetSymbolType() != c.kind {
			t.Fatalf("ParseSymbol(%q) type=%v, want %v", c.in, s.GetSymbolType(), c.kind)
		}
		if s.String() != c.in {
			t.Fatalf("round trip %q -> %q", c.in, s.String())
		}
	}

	w, _ := ParseSymbol("W1")
	if !IsSymbolWild(w) || IsSymbolHigh(w) || IsSymbolLow(w) {
		t.Fatalf("unexpected wild classification")
	}
}

func TestSymbolSettingInit(t *testing.T) {
	ss := &SymbolSetting{
		SymbolUsedStr: []string{"W1", "H1", "L1"},
		Weights:       []int{1, 2, 3},
		PayTable: [][]int{
			{5, 10, 50},
			{3, 6, 20},
			{0, 0, 0},
		},
	}
	if err := ss.Init(); err != nil {
		t.Fatalf("init error: %v", err)
	}
	if ss.SymbolCount != 3 || ss.WildID != 0 {
		t.Fatalf("unexpected derived values: count=%d wild=%d", ss.SymbolCount, ss.WildID)
	}

	// CSR：每符號 5 檔，前兩檔為 0，長度 3/4/5 直接索引
	for sym := 0; sym < 3; sym++ {
		base := ss.PayTableIndex[sym]
		if ss.PayTableFlat[base] != 0 || ss.PayTableFlat[base+1] != 0 {
			t.Fatalf("symbol %d: short-run tiers must be zero", sym)
		}
		for i, want := range ss.PayTable[sym] {
			if got := ss.PayTableFlat[base+2+i]; got != want {
				t.Fatalf("symbol %d tier %d: got %d want %d", sym, i+3, got, want)
			}
		}
	}

	// 再次 Init 為 no-op
	if err := ss.Init(); err != nil {
		t.Fatalf("second init error: %v", err)
	}
}

func TestSymbolSettingInitRejects(t *testing.T) {
	bad := []SymbolSetting{
		{SymbolUsedStr: []string{}, Weights: []int{}, PayTable: [][]int{}},
		{SymbolUsedStr: []string{"W1", "W2"}, Weights: []int{1, 1}, PayTable: [][]int{{1, 2, 3}, {1, 2, 3}}},
		{SymbolUsedStr: []string{"H1"}, Weights: []int{0}, PayTable: [][]int{{1, 2, 3}}},
		{SymbolUsedStr: []string{"H1"}, Weights: []int{1}, PayTable: [][]int{{1, 2}}},
		{SymbolUsedStr: []string{"H1"}, Weights: []int{1}, PayTable: [][]int{{-1, 2, 3}}},
		{SymbolUsedStr: []string{"Q1"}, Weights: []int{1}, PayTable: [][]int{{1, 2, 3}}},
		{SymbolUsedStr: []string{"H1", "H2"}, Weights: []int{1}, PayTable: [][]int{{1, 2, 3}, {1, 2, 3}}},
	}
	for i := range bad {
		if err := bad[i].Init(); err == nil {
			t.Fatalf("case %d: expected init error", i)
		}
	}
}

func TestLineSettingInit(t *testing.T) {
	ls := &LineSetting{LineTable: [][]int16{{0, 1, 2, 1, 0}}}
	if err := ls.Init(); err != nil {
		t.Fatalf("init error: %v", err)
	}
	want := []int16{0, 6, 12, 8, 4}
	for i, v := range want {
		if ls.LineTableFlat[i] != v {
			t.Fatalf("cell %d: got %d want %d", i, ls.LineTableFlat[i], v)
		}
	}
	if ls.LineCount != 1 {
		t.Fatalf("expected 1 line, got %d", ls.LineCount)
	}

	bad := []LineSetting{
		{},
		{LineTable: [][]int16{{0, 0, 0}}},
		{LineTable: [][]int16{{0, 0, 0, 0, 3}}},
	}
	for i := range bad {
		if err := bad[i].Init(); err == nil {
			t.Fatalf("case %d: expected init error", i)
		}
	}
}

func TestPocketSettingInit(t *testing.T) {
	ps := &PocketSetting{Slots: []string{"BONUS", "5", "0"}, BonusSpins: 4}
	if err := ps.Init(); err != nil {
		t.Fatalf("init error: %v", err)
	}
	if ps.Count != 3 {
		t.Fatalf("expected 3 pockets, got %d", ps.Count)
	}
	if !ps.Pockets[0].Bonus || ps.Pockets[0].Spins != 4 {
		t.Fatalf("unexpected bonus pocket: %+v", ps.Pockets[0])
	}
	if ps.Pockets[1].Bonus || ps.Pockets[1].Spins != 5 {
		t.Fatalf("unexpected pocket: %+v", ps.Pockets[1])
	}
	// "0" 為合法袋位：落入後不給旋轉
	if ps.Pockets[2].Bonus || ps.Pockets[2].Spins != 0 {
		t.Fatalf("unexpected zero pocket: %+v", ps.Pockets[2])
	}

	bad := []PocketSetting{
		{Slots: nil, BonusSpins: 4},
		{Slots: []string{"5"}, BonusSpins: 0},
		{Slots: []string{"-1"}, BonusSpins: 4},
		{Slots: []string{"bonus"}, BonusSpins: 4},
	}
	for i := range bad {
		if err := bad[i].Init(); err == nil {
			t.Fatalf("case %d: expected init error", i)
		}
	}
}

func TestTriggerSettingInit(t *testing.T) {
	ss := &SymbolSetting{
		SymbolUsedStr: []string{"W1", "H1", "H2"},
		Weights:       []int{1, 1, 1},
		PayTable:      [][]int{{5, 10, 50}, {3, 6, 20}, {2, 4, 10}},
	}
	if err := ss.Init(); err != nil {
		t.Fatalf("symbol init error: %v", err)
	}

	ts := &TriggerSetting{
		Row: 1,
		Rules: []TriggerRule{
			{SymbolStr: "H2", Count: 3, EffectStr: "left_wall"},
			{SymbolStr: "W1", Count: 3, EffectStr: "extra_ball_t2"},
		},
	}
	if err := ts.Init(ss); err != nil {
		t.Fatalf("init error: %v", err)
	}
	if ts.Rules[0].SymbolID != 2 || ts.Rules[0].Effect != EffectLeftWall {
		t.Fatalf("unexpected rule: %+v", ts.Rules[0])
	}
	if ts.Rules[1].SymbolID != 0 || ts.Rules[1].Effect != EffectExtraBallT2 {
		t.Fatalf("unexpected rule: %+v", ts.Rules[1])
	}

	bad := []TriggerSetting{
		{Row: 3, Rules: nil},
		{Row: 1, Rules: []TriggerRule{{SymbolStr: "X9", Count: 3, EffectStr: "left_wall"}}},
		{Row: 1, Rules: []TriggerRule{{SymbolStr: "L1", Count: 3, EffectStr: "left_wall"}}},
		{Row: 1, Rules: []TriggerRule{{SymbolStr: "H1", Count: 0, EffectStr: "left_wall"}}},
		{Row: 1, Rules: []TriggerRule{{SymbolStr: "H1", Count: 6, EffectStr: "left_wall"}}},
		{Row: 1, Rules: []TriggerRule{{SymbolStr: "H1", Count: 3, EffectStr: "teleport"}}},
	}
	for i := range bad {
		if err := bad[i].Init(ss); err == nil {
			t.Fatalf("case %d: expected init error", i)
		}
	}
}

func TestBoardSettingDefaults(t *testing.T) {
	bs := &BoardSetting{
		Width:        420,
		Height:       560,
		PegRows:      8,
		PegTop:       90,
		PegRowGap:    46,
		BallRadius:   7,
		PegRadius:    5,
		PocketHeight: 48,
		Gravity:      0.18,
		FrictionX:    0.99,
		Restitution:  0.55,
		MinBounce:    1.6,
		MaxPerturb:   0.35,
		SideDamping:  0.6,
	}
	if err := bs.Init(); err != nil {
		t.Fatalf("init error: %v", err)
	}
	if bs.MaxSteps != 4000 {
		t.Fatalf("expected default max steps 4000, got %d", bs.MaxSteps)
	}
	if len(bs.SpawnOffsets) != 1 || bs.SpawnOffsets[0] != 0 {
		t.Fatalf("expected default spawn offsets, got %v", bs.SpawnOffsets)
	}
	if bs.PocketY != 560-48 {
		t.Fatalf("unexpected pocket y: %f", bs.PocketY)
	}
}

func TestBoardSettingRejectsPegPocketOverlap(t *testing.T) {
	bs := &BoardSetting{
		Width:        420,
		Height:       560,
		PegRows:      12,
		PegTop:       90,
		PegRowGap:    46, // 最底列 y=596 > PocketY=512
		BallRadius:   7,
		PegRadius:    5,
		PocketHeight: 48,
		Gravity:      0.18,
		FrictionX:    0.99,
		Restitution:  0.55,
		MinBounce:    1.6,
		MaxPerturb:   0.35,
		SideDamping:  0.6,
	}
	if err := bs.Init(); err == nil {
		t.Fatalf("expected overlap error")
	}
}

const testYAML = `
game_name: tdrop
game_id: 9
bet_units: [10, 20]
init_balance: 1000
bonus_mult: 2
rng: pcg64
symbols:
  symbol_used: [W1, H1, L1]
  weights: [1, 2, 3]
  pay_table:
    - [5, 10, 50]
    - [3, 6, 20]
    - [1, 2, 8]
lines:
  line_table:
    - [1, 1, 1, 1, 1]
pockets:
  slots: [BONUS, "2", "0"]
  bonus_spins: 5
board:
  width: 420
  height: 560
  peg_rows: 8
  peg_top: 90
  peg_row_gap: 46
  ball_radius: 7
  peg_radius: 5
  pocket_height: 48
  gravity: 0.18
  friction_x: 0.99
  restitution: 0.55
  min_bounce: 1.6
  max_perturb: 0.35
  side_damping: 0.6
triggers:
  row: 1
  rules:
    - { symbol: H1, count: 3, effect: extra_ball_t1 }
`

func TestGetGameSettingByYAML(t *testing.T) {
	gs, err := GetGameSettingByYAML([]byte(testYAML))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if gs.GameName != "tdrop" || gs.GameID != 9 {
		t.Fatalf("unexpected metadata: %+v", gs)
	}
	if !gs.ValidBetUnit(20) || gs.ValidBetUnit(15) {
		t.Fatalf("bet unit validation failed")
	}
	if gs.MaxBetUnit() != 20 {
		t.Fatalf("expected max bet 20, got %d", gs.MaxBetUnit())
	}
	if gs.Pockets.Count != 3 || gs.Symbols.SymbolCount != 3 {
		t.Fatalf("sub-settings not initialized: %+v", gs)
	}
	if gs.Triggers.Rules[0].Effect != EffectExtraBallT1 {
		t.Fatalf("trigger not resolved: %+v", gs.Triggers.Rules[0])
	}
}

func TestGetGameSettingByYAMLRejectsUnknownRNG(t *testing.T) {
	bad := strings.Replace(testYAML, "rng: pcg64", "rng: mt19937", 1)
	if _, err := GetGameSettingByYAML([]byte(bad)); err == nil {
		t.Fatalf("expected unknown rng error")
	}
}

func TestPhaseAndEffectNames(t *testing.T) {
	if PhaseIdle.String() != "idle" || PhaseDropping.String() != "dropping" || PhaseSpinning.String() != "spinning" {
		t.Fatalf("unexpected phase names")
	}
	if PhaseType(99).String() != "unknown" {
		t.Fatalf("expected unknown phase name")
	}

	for i := 0; i < EffectCount; i++ {
		e := EffectType(i)
		if e == EffectNone {
			continue
		}
		parsed, ok := ParseEffect(e.String())
		if !ok || parsed != e {
			t.Fatalf("effect name round trip failed for %v", e)
		}
	}
	if _, ok := ParseEffect("none"); ok {
		t.Fatalf("none must not be parseable as a trigger effect")
	}
	if EffectType(-1).String() != "unknown" {
		t.Fatalf("expected unknown effect name")
	}
}
