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

package recorder_test

import (
	"testing"

	"github.com/zintix-labs/pegdrop/recorder"
	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/spec"
)

func testGameSetting() *spec.GameSetting {
	return &spec.GameSetting{
		GameName: "demo",
		GameID:   7,
		BetUnits: []int{10, 20},
		Pockets: spec.PocketSetting{
			Slots: []string{"BONUS", "2", "BONUS"},
		},
	}
}

// bonusRound 一回合：兩顆球、兩次旋轉（base 30 + bonus 40）、觸發一次 left_wall。
func bonusRound() *buf.DropResult {
	dr := &buf.DropResult{
		GameName:      "demo",
		GameID:        7,
		Bet:           10,
		BalanceBefore: 100,
		BalanceAfter:  160,
		TotalWin:      70,
		Balls: []buf.BallResult{
			{Pocket: 1, Spins: 2},
			{Pocket: 0, Spins: 5, Bonus: true},
		},
		SpinsAwarded: 5,
		Bonus:        true,
	}
	dr.Spins = []buf.SpinResult{
		{Win: 30, Triggers: []spec.EffectType{spec.EffectLeftWall}},
		{Win: 40, Bonus: true},
	}
	return dr
}

func TestRecordBasicSplit(t *testing.T) {
	rec, err := recorder.NewDropRecorder(testGameSetting(), 0, 0)
	if err != nil {
		t.Fatalf("new recorder error: %v", err)
	}

	rec.Record(bonusRound())

	b := rec.Basic
	if b.TotalBet != 10 || b.TotalWin != 70 {
		t.Fatalf("unexpected totals: %+v", b)
	}
	if b.BaseWin != 30 || b.BonusWin != 40 {
		t.Fatalf("base/bonus split wrong: %+v", b)
	}
	if b.Trigger != 1 || b.Balls != 2 || b.SpinsPlayed != 2 || b.Rounds != 1 {
		t.Fatalf("unexpected counters: %+v", b)
	}

	if rec.Pocket.Landings[0] != 1 || rec.Pocket.Landings[1] != 1 || rec.Pocket.Landings[2] != 0 {
		t.Fatalf("unexpected landings: %v", rec.Pocket.Landings)
	}
	if rec.Effect.Counts[spec.EffectLeftWall] != 1 {
		t.Fatalf("unexpected effect counts: %v", rec.Effect.Counts)
	}
}

func TestRecorderDone(t *testing.T) {
	rec, err := recorder.NewDropRecorder(testGameSetting(), 0, 0)
	if err != nil {
		t.Fatalf("new recorder error: %v", err)
	}
	rec.Record(bonusRound())

	rep := rec.Done()
	if rep.Summary.GameName != "demo" || rep.Summary.GameId != 7 {
		t.Fatalf("unexpected summary: %+v", rep.Summary)
	}
	if rep.Summary.BetUnit != 10 || rep.Summary.BetMult != 1 {
		t.Fatalf("unexpected bet info: %+v", rep.Summary)
	}
	if rep.Summary.RTP != 7.0 {
		t.Fatalf("expected RTP 7.0, got %f", rep.Summary.RTP)
	}
	if rep.Summary.HitRate != 1.0 {
		t.Fatalf("expected hit rate 1.0, got %f", rep.Summary.HitRate)
	}
	if len(rep.Effect.Names) != spec.EffectCount {
		t.Fatalf("unexpected effect names: %v", rep.Effect.Names)
	}
	if len(rep.Pocket.Slots) != 3 {
		t.Fatalf("unexpected pocket slots: %v", rep.Pocket.Slots)
	}

	rep.Done()
	if rep.Summary.AvgSpins != 2.0 {
		t.Fatalf("expected avg spins 2.0, got %f", rep.Summary.AvgSpins)
	}
}

func TestMergeDropRecorder(t *testing.T) {
	gs := testGameSetting()
	a, err := recorder.NewDropRecorder(gs, 0, 0)
	if err != nil {
		t.Fatalf("new recorder error: %v", err)
	}
	b, err := recorder.NewDropRecorder(gs, 0, 0)
	if err != nil {
		t.Fatalf("new recorder error: %v", err)
	}
	a.Record(bonusRound())
	b.Record(bonusRound())

	m, err := recorder.MergeDropRecorder([]*recorder.DropRecorder{a, b}, gs)
	if err != nil {
		t.Fatalf("merge error: %v", err)
	}
	if m.Basic.Rounds != 2 || m.Basic.TotalWin != 140 || m.Basic.Balls != 4 {
		t.Fatalf("unexpected merged basic: %+v", m.Basic)
	}
	if m.Pocket.Landings[0] != 2 || m.Effect.Counts[spec.EffectLeftWall] != 2 {
		t.Fatalf("merged side records wrong: %v %v", m.Pocket.Landings, m.Effect.Counts)
	}

	other, err := recorder.NewDropRecorder(gs, 0, 1)
	if err != nil {
		t.Fatalf("new recorder error: %v", err)
	}
	if _, err := recorder.MergeDropRecorder([]*recorder.DropRecorder{a, other}, gs); err == nil {
		t.Fatalf("expected merge error for different bet mode")
	}
}

func TestRecordWithPlayerBust(t *testing.T) {
	// 2 注本金：輸兩把即破產
	rec, err := recorder.NewDropRecorder(testGameSetting(), 2, 0)
	if err != nil {
		t.Fatalf("new recorder error: %v", err)
	}

	loss := &buf.DropResult{Bet: 10, TotalWin: 0}
	if leave := rec.RecordWithPlayer(loss); leave {
		t.Fatalf("should survive first loss")
	}
	if leave := rec.RecordWithPlayer(loss); !leave {
		t.Fatalf("expected bust after second loss")
	}
	if !rec.Player.Bust || rec.Player.Balance != 0 {
		t.Fatalf("unexpected player state: %+v", rec.Player)
	}
	// 破產後不再記帳
	if leave := rec.RecordWithPlayer(loss); !leave {
		t.Fatalf("expected leave signal after bust")
	}
	if rec.Basic.Rounds != 2 {
		t.Fatalf("expected 2 recorded rounds, got %d", rec.Basic.Rounds)
	}
}

func TestRecordWithPlayerCashout(t *testing.T) {
	// 2 注本金，離場線 3 倍本金 = 60
	rec, err := recorder.NewDropRecorder(testGameSetting(), 2, 0)
	if err != nil {
		t.Fatalf("new recorder error: %v", err)
	}

	bigWin := &buf.DropResult{Bet: 10, TotalWin: 60}
	if leave := rec.RecordWithPlayer(bigWin); !leave {
		t.Fatalf("expected cashout leave")
	}
	if !rec.Player.Cashout || rec.Player.Balance != 70 {
		t.Fatalf("unexpected player state: %+v", rec.Player)
	}
}

func TestNewDropRecorderRejects(t *testing.T) {
	gs := testGameSetting()
	if _, err := recorder.NewDropRecorder(nil, 0, 0); err == nil {
		t.Fatalf("expected error for nil setting")
	}
	if _, err := recorder.NewDropRecorder(gs, 0, 5); err == nil {
		t.Fatalf("expected error for bad bet mode")
	}
	if _, err := recorder.NewDropRecorder(gs, -1, 0); err == nil {
		t.Fatalf("expected error for negative init bets")
	}
}
