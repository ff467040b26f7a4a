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

package dto

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/pegdrop/corefmt"
	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/spec"
)

func TestDecodeDropRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/drop?uid=u1&game=demo&gid=7&bet=10&trace=true", nil)
	req, err := DecodeDropRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.UID != "u1" || req.GameName != "demo" || req.GameId != 7 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Bet != 10 || !req.Trace {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeDropRequestPOST(t *testing.T) {
	payload := map[string]any{
		"uid":  "u2",
		"game": "demo",
		"gid":  9,
		"bet":  5,
		"start_state": map[string]any{
			"start_b64u": corefmt.EncodeBase64URL([]byte{1, 2, 3}),
		},
	}
	data, _ := json.Marshal(payload)
	r := httptest.NewRequest(http.MethodPost, "/drop", bytes.NewReader(data))
	req, err := DecodeDropRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.GameId != 9 || req.Bet != 5 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !req.StartState.HasPayload() {
		t.Fatalf("expected start state payload")
	}
}

func TestDecodeDropRequestRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"gid":1,"game":"demo","bet":1,"unknown":true}`)
	r := httptest.NewRequest(http.MethodPost, "/drop", bytes.NewReader(data))
	if _, err := DecodeDropRequest(r); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestDecodeDropRequestRejectsBadGET(t *testing.T) {
	for _, target := range []string{
		"/drop?gid=abc",
		"/drop?bet=abc",
		"/drop?trace=abc",
	} {
		r := httptest.NewRequest(http.MethodGet, target, nil)
		if _, err := DecodeDropRequest(r); err == nil {
			t.Fatalf("expected error for %s", target)
		}
	}
}

func TestParseStartState(t *testing.T) {
	snap := []byte{9, 8, 7, 6}
	dr := &DropRequest{
		UID:        "u1",
		GameId:     7,
		Bet:        10,
		StartState: &StartState{StartCoreSnapB64U: corefmt.EncodeBase64URL(snap)},
	}
	req, err := dr.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.UID != "u1" || req.GameId != 7 || req.Bet != 10 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !bytes.Equal(req.StartCoreSnap, snap) {
		t.Fatalf("snapshot not decoded: %v", req.StartCoreSnap)
	}

	dr.StartState.StartCoreSnapB64U = "!!!not-base64url!!!"
	if _, err := dr.Parse(); err == nil {
		t.Fatalf("expected decode error")
	}

	dr.StartState = nil
	req, err = dr.Parse()
	if err != nil || req.StartCoreSnap != nil {
		t.Fatalf("nil start state must decode to empty snapshot: %v %v", req.StartCoreSnap, err)
	}
}

func TestNewDropResultDTODeepCopies(t *testing.T) {
	src := &buf.DropResult{
		GameName:      "demo",
		GameID:        7,
		Bet:           10,
		BalanceBefore: 100,
		BalanceAfter:  120,
		TotalWin:      30,
		Balls: []buf.BallResult{
			{Pocket: 2, Spins: 3, Steps: 120, SpawnX: 210, Trace: []buf.TracePoint{{X: 1, Y: 2}}},
		},
		SpinsAwarded: 3,
		Bonus:        true,
	}
	sr := buf.SpinResult{
		LineMult: 5,
		Win:      50,
		Bonus:    true,
		WinMask:  0x3E0,
		Details:  []buf.LineDetail{{LineID: 0, SymbolID: 1, Count: 5, Mult: 5}},
		Triggers: []spec.EffectType{spec.EffectLeftWall},
	}
	sr.Screen[0] = 4
	src.Spins = []buf.SpinResult{sr}

	start := []byte{1, 1}
	after := []byte{2, 2}
	st := buf.GameState{Balance: 120, CurrentBet: 10, PhaseName: "idle"}

	dto, err := NewDropResultDTO(src, st, start, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dto.TotalWin != 30 || dto.Bet != 10 || !dto.Bonus || dto.SpinsAwarded != 3 {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if len(dto.Balls) != 1 || dto.Balls[0].Pocket != 2 || len(dto.Balls[0].Trace) != 1 {
		t.Fatalf("unexpected balls: %+v", dto.Balls)
	}
	if len(dto.Spins) != 1 || dto.Spins[0].Win != 50 || dto.Spins[0].WinMask != 0x3E0 {
		t.Fatalf("unexpected spins: %+v", dto.Spins)
	}
	if len(dto.Spins[0].Details) != 1 || dto.Spins[0].Details[0].Count != 5 {
		t.Fatalf("unexpected details: %+v", dto.Spins[0].Details)
	}

	// RNG 審計欄位可還原
	got, err := corefmt.DecodeBase64URL(dto.State.StartCoreSnapB64U)
	if err != nil || !bytes.Equal(got, start) {
		t.Fatalf("start snap round trip failed: %v %v", got, err)
	}
	got, err = corefmt.DecodeBase64URL(dto.State.AfterCoreSnapB64U)
	if err != nil || !bytes.Equal(got, after) {
		t.Fatalf("after snap round trip failed: %v %v", got, err)
	}

	// 深拷貝：改來源不影響 DTO
	src.Spins[0].Screen[0] = 9
	src.Balls[0].Trace[0].X = 99
	src.Spins[0].Details[0].Mult = 99
	if dto.Spins[0].Screen[0] != 4 {
		t.Fatalf("screen not deep copied")
	}
	if dto.Balls[0].Trace[0].X != 1 {
		t.Fatalf("trace not deep copied")
	}
	if dto.Spins[0].Details[0].Mult != 5 {
		t.Fatalf("details not deep copied")
	}
}

func TestNewDropResultDTONil(t *testing.T) {
	if _, err := NewDropResultDTO(nil, buf.GameState{}, nil, nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
}
