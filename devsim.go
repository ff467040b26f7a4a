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

package pegdrop

import (
	"github.com/zintix-labs/pegdrop/corefmt"
	"github.com/zintix-labs/pegdrop/dto"
	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/stats"
)

// DevSimulator
//
// 只提供給Dev模式使用的模擬器，單線(不併發)，重點在可審計、可重現
type DevSimulator struct {
	sim      *Simulator // 只開放Sim功能
	m        *Machine   // 同步seed
	before   []byte
	after    []byte
	before64 string
	after64  string
}

type DevDropReport struct {
	Before   string           `json:"start_b64u"`
	After    string           `json:"after_b64u"`
	Round    int              `json:"round"`
	Rtp      float64          `json:"rtp"`
	TotalBet int              `json:"total_bet"`
	TotalWin int              `json:"total_win"`
	BaseWin  int              `json:"base_win"`
	BonusWin int              `json:"bonus_win"`
	Results  []dto.DropResult `json:"results"`
}

func (d *DevSimulator) dropOne(betmode int) (dto.DropResult, error) {
	bu := d.m.gs.BetUnits
	if betmode < 0 || betmode >= len(bu) {
		return dto.DropResult{}, errs.NewWarn("bet_mode out of range")
	}
	// dev 機台破產不中斷：餘額不足時補滿初始餘額
	d.m.mu.Lock()
	if d.m.state.Balance < bu[betmode] {
		d.m.state.Balance = max(d.m.gs.InitBalance, bu[betmode])
	}
	d.m.mu.Unlock()
	req := &dto.DropRequest{
		GameName: d.m.gameName,
		GameId:   d.m.gameId,
		Bet:      bu[betmode],
	}
	return d.m.Drop(req)
}

func (d *DevSimulator) Drops(betmode int, round int) (DevDropReport, error) {
	// 限制檢查
	if round < 1 || round > 5000 {
		return DevDropReport{}, errs.NewWarn("round must be between 1 and 5,000")
	}

	// drop
	ds := make([]dto.DropResult, 0, round)
	for range round {
		result, err := d.dropOne(betmode)
		if err != nil {
			return DevDropReport{}, errs.Wrap(err, "drop error")
		}
		ds = append(ds, result)
	}
	// 統計
	bet, win, base := 0, 0, 0
	for _, r := range ds {
		bet += r.Bet
		win += r.TotalWin
		for _, sp := range r.Spins {
			if !sp.Bonus {
				base += sp.Win
			}
		}
	}

	de := DevDropReport{
		Before:   ds[0].State.StartCoreSnapB64U,
		After:    ds[len(ds)-1].State.AfterCoreSnapB64U,
		Round:    len(ds),
		Rtp:      100.0 * float64(win) / float64(bet),
		TotalBet: bet,
		TotalWin: win,
		BaseWin:  base,
		BonusWin: win - base,
		Results:  ds,
	}
	return de, nil
}

func (d *DevSimulator) RestoreDrops(be64 string, betmode int, round int) (DevDropReport, error) {
	// 限制檢查
	if round < 1 || round > 5000 {
		return DevDropReport{}, errs.NewWarn("round must be between 1 and 5,000")
	}
	// 解析seed
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevDropReport{}, errs.NewWarn("decode seed failed" + err.Error())
	}
	// restore
	if err := d.m.RestoreCore(be); err != nil {
		return DevDropReport{}, errs.NewWarn("machine restore failed")
	}
	return d.Drops(betmode, round)
}

type DevSimReport struct {
	Before string            `json:"before"`
	After  string            `json:"after"`
	Stat   *stats.StatReport `json:"statistic"`
}

func (d *DevSimulator) Sim(betmode int, round int) (DevSimReport, error) {
	// 先存 before 快照
	m := d.sim.mBuf[0]
	be, err := m.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	be64 := corefmt.EncodeBase64URL(be)
	d.before = be
	d.before64 = be64

	// Drop
	bu := d.m.gs.BetUnits
	if betmode < 0 || betmode >= len(bu) {
		return DevSimReport{}, errs.NewWarn("bet_mode out of range")
	}
	if round < 1 || round > 3_000_000 {
		return DevSimReport{}, errs.NewWarn("round must be between 1 and 3,000,000")
	}
	stat, _, err := d.sim.Sim(betmode, round, false)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "sim failed")
	}

	// 再存 after 快照
	af, err := m.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	af64 := corefmt.EncodeBase64URL(af)
	d.after = af
	d.after64 = af64

	return DevSimReport{
		Before: be64,
		After:  af64,
		Stat:   stat,
	}, nil
}

func (d *DevSimulator) RestoreSim(be64 string, betmode int, round int) (DevSimReport, error) {
	// 反解析 string -> []byte
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "decode seed failed")
	}
	d.before = be
	d.before64 = be64

	// restore
	if err := d.sim.mBuf[0].RestoreCore(be); err != nil {
		return DevSimReport{}, errs.Wrap(err, "restore simulator failed")
	}

	return d.Sim(betmode, round)
}
