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

package buf

import (
	"testing"

	"github.com/zintix-labs/pegdrop/spec"
)

func testGameSetting() *spec.GameSetting {
	return &spec.GameSetting{
		GameName: "demo",
		GameID:   7,
		BetUnits: []int{10, 20},
	}
}

func TestRecordLine(t *testing.T) {
	sr := &SpinResult{}
	sr.RecordLine(3, 1, 3, 5, []int16{5, 6, 7})
	sr.RecordLine(4, 2, 4, 8, []int16{0, 1, 2, 3})

	if sr.LineMult != 13 {
		t.Fatalf("expected line mult 13, got %d", sr.LineMult)
	}
	if len(sr.Details) != 2 {
		t.Fatalf("expected 2 details, got %+v", sr.Details)
	}
	if sr.Details[0].LineID != 3 || sr.Details[0].Count != 3 || sr.Details[0].Mult != 5 {
		t.Fatalf("unexpected detail: %+v", sr.Details[0])
	}
	wantMask := uint16(1<<5 | 1<<6 | 1<<7 | 1<<0 | 1<<1 | 1<<2 | 1<<3)
	if sr.WinMask != wantMask {
		t.Fatalf("expected win mask %#x, got %#x", wantMask, sr.WinMask)
	}
}

func TestDropResultSettle(t *testing.T) {
	dr := NewDropResult(testGameSetting())
	if dr.GameName != "demo" || dr.GameID != 7 {
		t.Fatalf("unexpected metadata: %+v", dr)
	}

	dr.Bet = 10
	dr.AppendBall(BallResult{Pocket: 2, Spins: 3})
	if len(dr.Balls) != 1 || dr.Balls[0].Pocket != 2 {
		t.Fatalf("unexpected balls: %+v", dr.Balls)
	}

	sr := dr.NextSpin()
	sr.Win = 30
	dr.SettleSpin(sr)

	sr2 := dr.NextSpin()
	sr2.Win = 40
	dr.SettleSpin(sr2)

	if dr.TotalWin != 70 {
		t.Fatalf("expected total win 70, got %d", dr.TotalWin)
	}
	if len(dr.Spins) != 2 {
		t.Fatalf("expected 2 spins, got %d", len(dr.Spins))
	}
}

func TestDropResultResetReusesSpinPool(t *testing.T) {
	dr := NewDropResult(testGameSetting())

	sr1 := dr.NextSpin()
	sr1.Win = 5
	sr1.RecordLine(0, 1, 3, 5, []int16{0, 1, 2})
	dr.SettleSpin(sr1)
	dr.AppendBall(BallResult{Pocket: 1})

	dr.Reset()
	if dr.Bet != 0 || dr.TotalWin != 0 || len(dr.Balls) != 0 || len(dr.Spins) != 0 {
		t.Fatalf("drop result not reset: %+v", dr)
	}
	if dr.Bonus || dr.SpinsAwarded != 0 || dr.ModsAfter != (spec.ModState{}) {
		t.Fatalf("drop result not reset: %+v", dr)
	}

	sr2 := dr.NextSpin()
	if sr1 != sr2 {
		t.Fatalf("expected spin pool slot to be reused")
	}
	if sr2.Win != 0 || sr2.LineMult != 0 || sr2.WinMask != 0 || len(sr2.Details) != 0 {
		t.Fatalf("reused spin not cleared: %+v", sr2)
	}
}

func TestNextSpinGrowth(t *testing.T) {
	dr := NewDropResult(testGameSetting())

	for i := 0; i < 20; i++ {
		sr := dr.NextSpin()
		sr.Win = i
	}
	if len(dr.Spins) != 20 {
		t.Fatalf("expected 20 spins, got %d", len(dr.Spins))
	}
	for i := range dr.Spins {
		if dr.Spins[i].Win != i {
			t.Fatalf("spin %d overwritten: %+v", i, dr.Spins[i])
		}
	}
}
