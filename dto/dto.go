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
	"github.com/zintix-labs/pegdrop/corefmt"
	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/spec"
)

// DropResult 為對外輸出的完整落球回合結果。
//
// 引擎內部的 buf.DropResult 是會被覆寫的重用 buffer，
// 轉 DTO 時一律深拷貝，呼叫端可以放心持有。
type DropResult struct {
	GameName string   `json:"game"`   // 遊戲名稱
	GameID   spec.GID `json:"gameid"` // 遊戲編號

	Bet           int `json:"bet"`            // 本次押注（分）
	BalanceBefore int `json:"balance_before"` // 扣注前餘額（分）
	BalanceAfter  int `json:"balance_after"`  // 結算後餘額（分）
	TotalWin      int `json:"win"`            // 總贏分（分）

	Balls []BallResultDTO `json:"balls"`           // 依落袋順序
	Spins []SpinResultDTO `json:"spins,omitempty"` // 依旋轉順序

	SpinsAwarded int           `json:"spins_awarded"`
	Bonus        bool          `json:"bonus"`
	Mods         spec.ModState `json:"mods"` // 結束時未消耗的修飾狀態

	State DropState     `json:"drop_state"` // RNG 審計狀態
	Game  buf.GameState `json:"game_state"` // 機台狀態快照
}

// BallResultDTO 單顆球的落袋結果。
type BallResultDTO struct {
	Pocket int              `json:"pocket"`
	Spins  int              `json:"spins"`
	Bonus  bool             `json:"bonus"`
	Steps  int              `json:"steps"`
	SpawnX float64          `json:"spawn_x"`
	Trace  []buf.TracePoint `json:"trace,omitempty"`
}

// SpinResultDTO 單次盤面評估結果。
type SpinResultDTO struct {
	Screen   []int16           `json:"screen"`
	LineMult int               `json:"line_mult"`
	Win      int               `json:"win"`
	Bonus    bool              `json:"bonus"`
	WinMask  uint16            `json:"win_mask"`
	Details  []LineDetailDTO   `json:"details,omitempty"`
	Triggers []spec.EffectType `json:"triggers,omitempty"`
}

// LineDetailDTO 單線中獎細項。
type LineDetailDTO struct {
	LineID   int   `json:"line"`
	SymbolID int16 `json:"symbol"`
	Count    int   `json:"count"`
	Mult     int   `json:"mult"`
}

// DropState 承載本回合的 RNG 審計資訊。
//
// start_b64u 可作為下一次請求的回放入口；after_b64u 可作為續玩入口。
type DropState struct {
	StartCoreSnapB64U string `json:"start_b64u"` // 必回
	AfterCoreSnapB64U string `json:"after_b64u"` // 必回
}

// NewDropResultDTO 把內部結果深拷貝成對外 DTO。
func NewDropResultDTO(dr *buf.DropResult, st buf.GameState, startsnap, aftersnap []byte) (DropResult, error) {
	if dr == nil {
		return DropResult{}, errs.NewWarn("drop result is nil")
	}

	dto := DropResult{
		GameName:      dr.GameName,
		GameID:        dr.GameID,
		Bet:           dr.Bet,
		BalanceBefore: dr.BalanceBefore,
		BalanceAfter:  dr.BalanceAfter,
		TotalWin:      dr.TotalWin,
		SpinsAwarded:  dr.SpinsAwarded,
		Bonus:         dr.Bonus,
		Mods:          dr.ModsAfter,
		State: DropState{
			StartCoreSnapB64U: corefmt.EncodeBase64URL(startsnap),
			AfterCoreSnapB64U: corefmt.EncodeBase64URL(aftersnap),
		},
		Game: st,
	}

	if len(dr.Balls) > 0 {
		dto.Balls = make([]BallResultDTO, len(dr.Balls))
		for i, b := range dr.Balls {
			dto.Balls[i] = BallResultDTO{
				Pocket: b.Pocket,
				Spins:  b.Spins,
				Bonus:  b.Bonus,
				Steps:  b.Steps,
				SpawnX: b.SpawnX,
				Trace:  append([]buf.TracePoint(nil), b.Trace...),
			}
		}
	}

	if len(dr.Spins) > 0 {
		dto.Spins = make([]SpinResultDTO, len(dr.Spins))
		for i := range dr.Spins {
			dto.Spins[i] = newSpinResultDTO(&dr.Spins[i])
		}
	}

	return dto, nil
}

func newSpinResultDTO(sr *buf.SpinResult) SpinResultDTO {
	dto := SpinResultDTO{
		Screen:   append([]int16(nil), sr.Screen[:]...),
		LineMult: sr.LineMult,
		Win:      sr.Win,
		Bonus:    sr.Bonus,
		WinMask:  sr.WinMask,
		Triggers: append([]spec.EffectType(nil), sr.Triggers...),
	}
	if len(sr.Details) > 0 {
		dto.Details = make([]LineDetailDTO, len(sr.Details))
		for i, d := range sr.Details {
			dto.Details[i] = LineDetailDTO{
				LineID:   d.LineID,
				SymbolID: d.SymbolID,
				Count:    d.Count,
				Mult:     d.Mult,
			}
		}
	}
	return dto
}
