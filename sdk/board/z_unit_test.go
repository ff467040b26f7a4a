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

package board

import (
	"testing"

	"github.com/zintix-labs/pegdrop/sdk/core"
	"github.com/zintix-labs/pegdrop/spec"
)

func testBoardSetting() *spec.BoardSetting {
	return &spec.BoardSetting{
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
		WallBandHalf: 26,
		WallMinY:     90,
		WallNudge:    0.22,
		MaxSteps:     4000,
		SpawnOffsets: []float64{-30, -15, 0, 15, 30},
		SpawnWeights: []int{1, 2, 4, 2, 1},
	}
}

func TestBoardLayout(t *testing.T) {
	bd, err := NewBoard(testBoardSetting(), 9)
	if err != nil {
		t.Fatalf("new board error: %v", err)
	}

	// 第 r 列 r+3 根：3+4+...+10
	want := 0
	for r := 0; r < 8; r++ {
		want += r + 3
	}
	if len(bd.Pegs) != want {
		t.Fatalf("expected %d pegs, got %d", want, len(bd.Pegs))
	}
	for i, p := range bd.Pegs {
		if p.X <= 0 || p.X >= 420 {
			t.Fatalf("peg %d outside board: %+v", i, p)
		}
	}
	if bd.ZoneWidth != 420.0/9.0 {
		t.Fatalf("unexpected zone width %f", bd.ZoneWidth)
	}
}

func TestPocketAtClamps(t *testing.T) {
	bd, err := NewBoard(testBoardSetting(), 9)
	if err != nil {
		t.Fatalf("new board error: %v", err)
	}

	if got := bd.PocketAt(-5); got != 0 {
		t.Fatalf("expected clamp to pocket 0, got %d", got)
	}
	if got := bd.PocketAt(10000); got != 8 {
		t.Fatalf("expected clamp to pocket 8, got %d", got)
	}
	if got := bd.PocketAt(210); got != 4 {
		t.Fatalf("expected center pocket 4, got %d", got)
	}

	lo, hi := bd.ZoneSpan(0)
	if lo != 0 || hi != bd.ZoneWidth {
		t.Fatalf("unexpected zone span [%f,%f)", lo, hi)
	}
	// 區域邊界屬於右側袋
	if got := bd.PocketAt(hi); got != 1 {
		t.Fatalf("expected boundary to fall in pocket 1, got %d", got)
	}
}

func TestSpawn(t *testing.T) {
	bd, err := NewBoard(testBoardSetting(), 9)
	if err != nil {
		t.Fatalf("new board error: %v", err)
	}

	b := bd.Spawn(15, false)
	if b.X != 210+15 || b.SpawnX != b.X {
		t.Fatalf("unexpected spawn position: %+v", b)
	}
	if b.Pocket != -1 || b.Landed {
		t.Fatalf("expected unlanded ball, got %+v", b)
	}
	if b.Trace != nil {
		t.Fatalf("expected no trace buffer")
	}

	bt := bd.Spawn(0, true)
	if bt.Trace == nil || len(bt.Trace) != 0 {
		t.Fatalf("expected empty trace buffer, got %v", bt.Trace)
	}
}

func TestSteerWallsBand(t *testing.T) {
	bd, err := NewBoard(testBoardSetting(), 9)
	if err != nil {
		t.Fatalf("new board error: %v", err)
	}
	s := bd.Setting

	// 帶內且過了盤頂下限：受朝左袋的固定推力
	b := &Ball{X: bd.wallLeftX, Y: s.WallMinY}
	bd.steerWalls(b, true, false)
	if b.VX != -s.WallNudge {
		t.Fatalf("expected left nudge %f, got %f", -s.WallNudge, b.VX)
	}
	// 推力逐步累積
	bd.steerWalls(b, true, false)
	if b.VX != -2*s.WallNudge {
		t.Fatalf("expected accumulated nudge, got %f", b.VX)
	}

	// 盤頂下限以上不受導向
	b = &Ball{X: bd.wallLeftX, Y: s.WallMinY - 1}
	bd.steerWalls(b, true, false)
	if b.VX != 0 {
		t.Fatalf("ball above wall_min_y must not be steered, got %f", b.VX)
	}

	// 帶外不受力
	b = &Ball{X: bd.wallLeftX + s.WallBandHalf + 1, Y: s.WallMinY + 100}
	bd.steerWalls(b, true, false)
	if b.VX != 0 {
		t.Fatalf("ball outside band must not be steered, got %f", b.VX)
	}

	// 右牆帶對稱
	b = &Ball{X: bd.wallRightX - s.WallBandHalf, Y: s.WallMinY + 100}
	bd.steerWalls(b, false, true)
	if b.VX != s.WallNudge {
		t.Fatalf("expected right nudge %f, got %f", s.WallNudge, b.VX)
	}

	// 效果未啟動時帶內也不受力
	b = &Ball{X: bd.wallLeftX, Y: s.WallMinY + 100}
	bd.steerWalls(b, false, false)
	if b.VX != 0 {
		t.Fatalf("inactive wall must not steer, got %f", b.VX)
	}
}

func TestRunAllDeterministic(t *testing.T) {
	run := func(seed int64) (int, int) {
		bd, err := NewBoard(testBoardSetting(), 9)
		if err != nil {
			t.Fatalf("new board error: %v", err)
		}
		c := core.New(core.Default().New(seed))
		b := bd.Spawn(0, false)
		order, err := bd.RunAll([]*Ball{b}, c, false, false)
		if err != nil {
			t.Fatalf("run all error: %v", err)
		}
		if len(order) != 1 || order[0] != 0 {
			t.Fatalf("unexpected landing order: %v", order)
		}
		if !b.Landed {
			t.Fatalf("expected ball to land")
		}
		return b.Pocket, b.Steps
	}

	p1, s1 := run(42)
	p2, s2 := run(42)
	if p1 != p2 || s1 != s2 {
		t.Fatalf("same seed diverged: pocket %d/%d steps %d/%d", p1, p2, s1, s2)
	}
	if p1 < 0 || p1 >= 9 {
		t.Fatalf("pocket out of range: %d", p1)
	}
}

func TestRunAllMultiBall(t *testing.T) {
	bd, err := NewBoard(testBoardSetting(), 9)
	if err != nil {
		t.Fatalf("new board error: %v", err)
	}
	c := core.New(core.Default().New(9))
	balls := []*Ball{bd.Spawn(-15, false), bd.Spawn(0, false), bd.Spawn(15, false)}

	order, err := bd.RunAll(balls, c, false, false)
	if err != nil {
		t.Fatalf("run all error: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 landings, got %v", order)
	}
	seen := map[int]bool{}
	for _, i := range order {
		if seen[i] {
			t.Fatalf("duplicate landing index %d in %v", i, order)
		}
		seen[i] = true
		if !balls[i].Landed {
			t.Fatalf("ball %d not landed", i)
		}
	}
}

func TestRunAllStepLimit(t *testing.T) {
	bs := testBoardSetting()
	bs.MaxSteps = 1
	bd, err := NewBoard(bs, 9)
	if err != nil {
		t.Fatalf("new board error: %v", err)
	}
	c := core.New(core.Default().New(1))

	if _, err := bd.RunAll([]*Ball{bd.Spawn(0, false)}, c, false, false); err == nil {
		t.Fatalf("expected step limit error")
	}
}
