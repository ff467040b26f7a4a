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

package pegdrop_test

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/pegdrop"
	"github.com/zintix-labs/pegdrop/corefmt"
	"github.com/zintix-labs/pegdrop/defaults"
	"github.com/zintix-labs/pegdrop/dto"
	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/sdk/sampler"
	"github.com/zintix-labs/pegdrop/spec"
)

const classicGID = spec.GID(1001)

func newLab(t *testing.T) *pegdrop.Pegdrop {
	t.Helper()
	lab, err := pegdrop.Default()
	if err != nil {
		t.Fatalf("default lab error: %v", err)
	}
	return lab
}

func TestDefaultCatalog(t *testing.T) {
	lab := newLab(t)

	ent, ok := lab.EntryById(classicGID)
	if !ok || ent.Name != "pegdrop_classic" {
		t.Fatalf("classic game not registered: %+v", ent)
	}
	if _, ok := lab.EntryByName("pegdrop_classic"); !ok {
		t.Fatalf("lookup by name failed")
	}

	sum, err := lab.Summary()
	if err != nil {
		t.Fatalf("summary error: %v", err)
	}
	if len(sum) == 0 || sum[0].GID != classicGID || len(sum[0].Pockets) != 9 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestMachineReproducible(t *testing.T) {
	lab := newLab(t)

	m1, err := lab.NewMachineWithSeed(classicGID, 42, true)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}
	m2, err := lab.NewMachineWithSeed(classicGID, 42, true)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}

	for round := 0; round < 100; round++ {
		r1 := m1.DropInternal(0)
		w1, balls1, spins1 := r1.TotalWin, len(r1.Balls), r1.SpinsAwarded
		pockets1 := make([]int, balls1)
		for i := range r1.Balls {
			pockets1[i] = r1.Balls[i].Pocket
		}

		r2 := m2.DropInternal(0)
		if r2.TotalWin != w1 || len(r2.Balls) != balls1 || r2.SpinsAwarded != spins1 {
			t.Fatalf("round %d diverged: %+v vs win=%d balls=%d spins=%d", round, r2, w1, balls1, spins1)
		}
		for i := range r2.Balls {
			if r2.Balls[i].Pocket != pockets1[i] {
				t.Fatalf("round %d ball %d pocket diverged", round, i)
			}
		}
	}
}

func TestRoundBalanceConservation(t *testing.T) {
	lab := newLab(t)

	m, err := lab.NewMachineWithSeed(classicGID, 7, true)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}

	for round := 0; round < 200; round++ {
		dr := m.DropInternal(0)
		if dr.BalanceAfter != dr.BalanceBefore-dr.Bet+dr.TotalWin {
			t.Fatalf("round %d: balance not conserved: %+v", round, dr)
		}
		if len(dr.Balls) < 1 {
			t.Fatalf("round %d: no balls landed", round)
		}
		if dr.SpinsAwarded != dr.Balls[len(dr.Balls)-1].Spins {
			t.Fatalf("round %d: spins must follow last landing: %+v", round, dr)
		}
		if len(dr.Spins) != dr.SpinsAwarded {
			t.Fatalf("round %d: spins played %d != awarded %d", round, len(dr.Spins), dr.SpinsAwarded)
		}

		st := m.State()
		if st.PhaseName != "idle" || st.SpinsRemaining != 0 || st.InBonus {
			t.Fatalf("round %d: machine not settled: %+v", round, st)
		}
	}
}

func TestSetBet(t *testing.T) {
	lab := newLab(t)

	m, err := lab.NewMachineWithSeed(classicGID, 1, false)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}

	if err := m.SetBet(50); err != nil {
		t.Fatalf("set bet error: %v", err)
	}
	if st := m.State(); st.CurrentBet != 50 {
		t.Fatalf("expected current bet 50, got %d", st.CurrentBet)
	}
	if err := m.SetBet(7); err == nil {
		t.Fatalf("expected error for invalid bet unit")
	}
}

func TestDropRequestValidation(t *testing.T) {
	lab := newLab(t)

	m, err := lab.NewMachineWithSeed(classicGID, 1, false)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}

	if _, err := m.Drop(&dto.DropRequest{GameId: 9999}); err == nil {
		t.Fatalf("expected error for wrong game id")
	}
	if _, err := m.Drop(&dto.DropRequest{GameId: classicGID, GameName: "other"}); err == nil {
		t.Fatalf("expected error for wrong game name")
	}
	if _, err := m.Drop(&dto.DropRequest{GameId: classicGID, Bet: 7}); err == nil {
		t.Fatalf("expected error for invalid bet")
	}
}

func TestDropAndReplay(t *testing.T) {
	lab := newLab(t)

	m1, err := lab.NewMachineWithSeed(classicGID, 99, false)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}
	r1, err := m1.Drop(&dto.DropRequest{GameId: classicGID})
	if err != nil {
		t.Fatalf("drop error: %v", err)
	}
	if r1.BalanceAfter != r1.BalanceBefore-r1.Bet+r1.TotalWin {
		t.Fatalf("balance not conserved: %+v", r1)
	}
	if r1.State.StartCoreSnapB64U == "" || r1.State.AfterCoreSnapB64U == "" {
		t.Fatalf("missing rng audit state: %+v", r1.State)
	}

	// 相同設定、相同出生 seed 的新機台，以 start 快照回放必得相同回合
	m2, err := lab.NewMachineWithSeed(classicGID, 99, false)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}
	rep, err := m2.Drop(&dto.DropRequest{
		GameId:     classicGID,
		StartState: &dto.StartState{StartCoreSnapB64U: r1.State.StartCoreSnapB64U},
	})
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if rep.TotalWin != r1.TotalWin || rep.SpinsAwarded != r1.SpinsAwarded || rep.Bonus != r1.Bonus {
		t.Fatalf("replay diverged: %+v vs %+v", rep, r1)
	}
	if len(rep.Balls) != len(r1.Balls) {
		t.Fatalf("replay ball count diverged")
	}
	for i := range rep.Balls {
		if rep.Balls[i].Pocket != r1.Balls[i].Pocket {
			t.Fatalf("replay ball %d pocket diverged", i)
		}
	}
	if rep.State.AfterCoreSnapB64U != r1.State.AfterCoreSnapB64U {
		t.Fatalf("replay rng stream diverged")
	}
}

func TestDropTraceOptIn(t *testing.T) {
	lab := newLab(t)

	m, err := lab.NewMachineWithSeed(classicGID, 5, false)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}

	r1, err := m.Drop(&dto.DropRequest{GameId: classicGID})
	if err != nil {
		t.Fatalf("drop error: %v", err)
	}
	if len(r1.Balls[0].Trace) != 0 {
		t.Fatalf("expected no trace by default")
	}

	r2, err := m.Drop(&dto.DropRequest{GameId: classicGID, Trace: true})
	if err != nil {
		t.Fatalf("drop error: %v", err)
	}
	if len(r2.Balls[0].Trace) == 0 {
		t.Fatalf("expected trace points")
	}
	if len(r2.Balls[0].Trace) != r2.Balls[0].Steps {
		t.Fatalf("trace length %d != steps %d", len(r2.Balls[0].Trace), r2.Balls[0].Steps)
	}
}

func TestDropErrorKeepsLiveStream(t *testing.T) {
	lab := newLab(t)

	// 同目錄遊戲、但餘額低於最小押注的機台：回合必定開不成
	raw, err := fs.ReadFile(defaults.FS, "classic.yaml")
	if err != nil {
		t.Fatalf("read config error: %v", err)
	}
	cfg := strings.Replace(string(raw), "init_balance: 10000", "init_balance: 5", 1)
	m, err := lab.NewMachineByYAML([]byte(cfg), 11)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}
	pre, err := m.SnapshotCore()
	if err != nil {
		t.Fatalf("snapshot error: %v", err)
	}

	other, err := lab.NewMachineWithSeed(classicGID, 777, false)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}
	foreign, err := other.SnapshotCore()
	if err != nil {
		t.Fatalf("snapshot error: %v", err)
	}
	if bytes.Equal(foreign, pre) {
		t.Fatalf("fixture snapshots must differ")
	}

	_, err = m.Drop(&dto.DropRequest{
		GameId:     classicGID,
		StartState: &dto.StartState{StartCoreSnapB64U: corefmt.EncodeBase64URL(foreign)},
	})
	if err == nil {
		t.Fatalf("expected insufficient balance error")
	}

	// 回合失敗後機台的 RNG 流水必須維持原狀，外部快照不可殘留
	after, err := m.SnapshotCore()
	if err != nil {
		t.Fatalf("snapshot error: %v", err)
	}
	if !bytes.Equal(after, pre) {
		t.Fatalf("failed replay leaked foreign rng state")
	}
}

func TestDropOptimalPick(t *testing.T) {
	lab := newLab(t)

	// 參考機台的出生快照作為 seed bank 唯一的種子
	ref, err := lab.NewMachineWithSeed(classicGID, 321, false)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}
	seed, err := ref.SnapshotCore()
	if err != nil {
		t.Fatalf("snapshot error: %v", err)
	}

	gj, err := json.Marshal(&pegdrop.Gacha{
		Picker:  sampler.BuildAliasTable([]int{1}),
		SeedLen: len(seed),
	})
	if err != nil {
		t.Fatalf("marshal gacha error: %v", err)
	}
	var zbuf bytes.Buffer
	zw, err := zstd.NewWriter(&zbuf)
	if err != nil {
		t.Fatalf("zstd writer error: %v", err)
	}
	if _, err := zw.Write(gj); err != nil {
		t.Fatalf("zstd write error: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zstd close error: %v", err)
	}
	lab.SetOptimalFS(fstest.MapFS{
		"gacha_1001.json.zst": &fstest.MapFile{Data: zbuf.Bytes()},
		"seed_bank_1001.bin":  &fstest.MapFile{Data: seed},
	})

	raw, err := fs.ReadFile(defaults.FS, "classic.yaml")
	if err != nil {
		t.Fatalf("read config error: %v", err)
	}
	cfg := string(raw) + `
optimal:
  use_optimal: true
  gachas: [gacha_1001.json.zst, gacha_1001.json.zst, gacha_1001.json.zst, gacha_1001.json.zst]
  seed_bank: [seed_bank_1001.bin, seed_bank_1001.bin, seed_bank_1001.bin, seed_bank_1001.bin]
`
	m, err := lab.NewMachineByYAML([]byte(cfg), 55)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}

	r, err := m.Drop(&dto.DropRequest{GameId: classicGID})
	if err != nil {
		t.Fatalf("drop error: %v", err)
	}
	// 回合必須從 bank 抽出的種子起跑
	if r.State.StartCoreSnapB64U != corefmt.EncodeBase64URL(seed) {
		t.Fatalf("round did not start from the picked bank seed")
	}

	// 控制組：同出生 seed 的機台直接開一回合，結果必一致
	ctl, err := lab.NewMachineWithSeed(classicGID, 321, false)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}
	want, err := ctl.Drop(&dto.DropRequest{GameId: classicGID})
	if err != nil {
		t.Fatalf("drop error: %v", err)
	}
	if r.TotalWin != want.TotalWin || r.SpinsAwarded != want.SpinsAwarded || len(r.Balls) != len(want.Balls) {
		t.Fatalf("optimal round diverged: %+v vs %+v", r, want)
	}
	for i := range r.Balls {
		if r.Balls[i].Pocket != want.Balls[i].Pocket {
			t.Fatalf("optimal round ball %d pocket diverged", i)
		}
	}
}

// 觸發密集的設定：中列兩個同符號即觸發，讓消耗路徑在少量回合內必然走到。
const triggerHeavyYAML = `
game_name: pegdrop_classic
game_id: 1001
bet_units: [10]
init_balance: 1000000
bonus_mult: 2
rng: pcg64

symbols:
  symbol_used: [W1, H1, H2, L1]
  weights: [10, 16, 16, 18]
  pay_table:
    - [20, 60, 200]
    - [5, 15, 50]
    - [4, 10, 40]
    - [1, 2, 8]

lines:
  line_table:
    - [1, 1, 1, 1, 1]

pockets:
  slots: ["3", "2", "2", "2", "2", "2", "2", "2", "3"]
  bonus_spins: 4

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
  wall_band_half: 26
  wall_min_y: 90
  wall_nudge: 0.22
  max_steps: 4000
  spawn_offsets: [-30, -15, 0, 15, 30]
  spawn_weights: [1, 2, 4, 2, 1]

triggers:
  row: 1
  rules:
    - { symbol: H2, count: 2, effect: left_wall }
    - { symbol: L1, count: 3, effect: right_wall }
    - { symbol: H1, count: 2, effect: extra_ball_t1 }
    - { symbol: W1, count: 2, effect: extra_ball_t2 }
`

func TestModifierConsumption(t *testing.T) {
	lab := newLab(t)

	m, err := lab.NewMachineByYAML([]byte(triggerHeavyYAML), 13)
	if err != nil {
		t.Fatalf("new machine error: %v", err)
	}

	hasEffect := func(dr *buf.DropResult, e spec.EffectType) bool {
		for i := range dr.Spins {
			for _, tr := range dr.Spins[i].Triggers {
				if tr == e {
					return true
				}
			}
		}
		return false
	}

	var prev spec.ModState
	wallRounds, multiRounds := 0, 0
	for round := 0; round < 300; round++ {
		dr := m.DropInternal(0)

		// 加球檔位在發球時一次性消耗：球數 = 1 + 上回合遺留檔位
		if len(dr.Balls) != 1+prev.ExtraBallTier {
			t.Fatalf("round %d: expected %d balls, got %d", round, 1+prev.ExtraBallTier, len(dr.Balls))
		}
		if prev.ExtraBallTier > 0 {
			multiRounds++
		}
		if prev.LeftWall || prev.RightWall {
			wallRounds++
		}

		// 回合結束後只保留本回合新觸發的修飾：沒觸發就必須是乾淨的
		if !hasEffect(dr, spec.EffectLeftWall) && dr.ModsAfter.LeftWall {
			t.Fatalf("round %d: left wall not consumed", round)
		}
		if !hasEffect(dr, spec.EffectRightWall) && dr.ModsAfter.RightWall {
			t.Fatalf("round %d: right wall not consumed", round)
		}
		if !hasEffect(dr, spec.EffectExtraBallT1) && !hasEffect(dr, spec.EffectExtraBallT2) && dr.ModsAfter.ExtraBallTier != 0 {
			t.Fatalf("round %d: extra ball tier not consumed", round)
		}

		prev = dr.ModsAfter
	}

	// 設定刻意讓觸發高頻；兩種消耗路徑都必須實際走到
	if wallRounds == 0 || multiRounds == 0 {
		t.Fatalf("consumption paths not exercised: walls=%d multiball=%d", wallRounds, multiRounds)
	}
}
