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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/spec"
	"github.com/zintix-labs/pegdrop/stats"
)

// DropRecorder 遊戲紀錄員
//
// DropRecorder 以「一次落球回合」為單位紀錄遊戲結果，並透過Done輸出統計報表。
// 一回合可能包含多顆球與多次旋轉，贏分與押注都以回合彙總計。
type DropRecorder struct {
	GameName    string
	GameId      spec.GID
	BetUnits    []int
	BetUnit     int
	BetMode     int
	InitBets    int
	PocketSlots []string
	Basic       *BasicRecord
	Dist        *DistRecord
	Pocket      *PocketRecord
	Effect      *EffectRecord
	Player      *PlayerRecord
}

// BasicRecord 基本遊戲資料紀錄
type BasicRecord struct {
	TotalBet       int
	TotalWin       int
	BaseWin        int // 非加倍旋轉的贏分
	BonusWin       int // 加倍旋轉的贏分
	TotalWinSqSum  int // 平方和
	BaseWinSqSum   int // 平方和
	BonusWinSqSum  int // 平方和
	Trigger        int // 觸發加倍的回合數
	Balls          int // 總落球數
	SpinsPlayed    int // 總旋轉數
	Rounds         int
}

// DistRecord 分數區間落點統計
//
// 紀錄時紀錄int資訊
type DistRecord struct {
	Bucket          *stats.WinBucket
	TotalWinCollect []int
	BaseWinCollect  []int
	BonusWinCollect []int
}

// PocketRecord 落袋分布紀錄（以袋位索引計數）
type PocketRecord struct {
	Landings []int
}

// EffectRecord 修飾效果觸發次數（以 EffectType 索引）
type EffectRecord struct {
	Counts []int
}

// PlayerRecord 玩家統計
type PlayerRecord struct {
	leaveLine   int
	InitBalance int
	Balance     int
	MaxBalance  int
	MinBalance  int
	Bust        bool
	Cashout     bool
	Alive       bool
}

func NewDropRecorder(gs *spec.GameSetting, initBets int, betMode int) (*DropRecorder, error) {
	s := new(DropRecorder)

	if gs == nil {
		return s, errs.NewFatal("nil game setting")
	}

	betUnits := gs.BetUnits
	if len(betUnits) == 0 {
		return s, errs.NewFatal(fmt.Sprintf("betunits err %v", betUnits))
	}

	for _, v := range betUnits {
		if v <= 0 {
			return s, errs.NewFatal(fmt.Sprintf("betunits err %v", betUnits))
		}
	}

	if betMode < 0 || betMode >= len(betUnits) {
		return s, errs.NewFatal(fmt.Sprintf("betMode err %d", betMode))
	}

	if initBets < 0 {
		return s, errs.NewFatal(fmt.Sprintf("init bets must not negative integer, got: %d", initBets))
	}
	// 通過valid
	s.GameName = gs.GameName
	s.GameId = gs.GameID
	s.BetUnits = betUnits
	s.BetUnit = betUnits[betMode]
	s.BetMode = betMode
	s.InitBets = initBets
	s.PocketSlots = append([]string(nil), gs.Pockets.Slots...)
	s.Basic = new(BasicRecord)
	s.Dist = newDistRecord(s.BetUnit)
	s.Pocket = &PocketRecord{Landings: make([]int, len(s.PocketSlots))}
	s.Effect = &EffectRecord{Counts: make([]int, spec.EffectCount)}
	s.Player = newPlayerRecord(s.BetUnit, s.InitBets)

	return s, nil
}

func MergeDropRecorder(r []*DropRecorder, gs *spec.GameSetting) (*DropRecorder, error) {
	r0 := r[0]
	s, err := NewDropRecorder(gs, r0.InitBets, r0.BetMode)
	if err != nil {
		return s, err
	}
	for _, v := range r {
		if v.GameName != r0.GameName {
			return s, errs.NewFatal("merge drop record err : different game name")
		}
		for i, b := range v.BetUnits {
			if b != r0.BetUnits[i] {
				return s, errs.NewFatal("merge drop record err : different betunits")
			}
		}
		if v.InitBets != r0.InitBets {
			return s, errs.NewFatal("merge drop record err : different init bets")
		}
		if v.BetMode != r0.BetMode {
			return s, errs.NewFatal("merge drop record err : different betmode")
		}
		s.Basic.TotalBet += v.Basic.TotalBet
		s.Basic.TotalWin += v.Basic.TotalWin
		s.Basic.BaseWin += v.Basic.BaseWin
		s.Basic.BonusWin += v.Basic.BonusWin
		s.Basic.TotalWinSqSum += v.Basic.TotalWinSqSum
		s.Basic.BaseWinSqSum += v.Basic.BaseWinSqSum
		s.Basic.BonusWinSqSum += v.Basic.BonusWinSqSum
		s.Basic.Trigger += v.Basic.Trigger
		s.Basic.Balls += v.Basic.Balls
		s.Basic.SpinsPlayed += v.Basic.SpinsPlayed
		s.Basic.Rounds += v.Basic.Rounds

		// 整合Dist
		for i := range len(v.Dist.TotalWinCollect) {
			s.Dist.TotalWinCollect[i] += v.Dist.TotalWinCollect[i]
			s.Dist.BaseWinCollect[i] += v.Dist.BaseWinCollect[i]
			s.Dist.BonusWinCollect[i] += v.Dist.BonusWinCollect[i]
		}

		// 整合Pocket / Effect
		for i := range v.Pocket.Landings {
			s.Pocket.Landings[i] += v.Pocket.Landings[i]
		}
		for i := range v.Effect.Counts {
			s.Effect.Counts[i] += v.Effect.Counts[i]
		}
	}
	return s, nil
}

// Record 以單次 DropResult 更新基本統計（不含玩家）
func (s *DropRecorder) Record(dr *buf.DropResult) {
	s.recordBasic(dr)  // Basic
	s.recordDist(dr)   // Dist
	s.recordPocket(dr) // Pocket
	s.recordEffect(dr) // Effect
}

// RecordWithPlayer 在 Record 的基礎上，進一步更新玩家餘額／離場狀態，並回傳玩家是否停止遊戲。
func (s *DropRecorder) RecordWithPlayer(dr *buf.DropResult) bool {
	if s.Player.Balance < s.BetUnit {
		return true
	}
	s.Record(dr)
	r := s.recordPlayer(dr)
	return r
}

func (s *DropRecorder) Done() *stats.StatReport {
	bufloat := float64(s.BetUnit)
	bb := bufloat * bufloat

	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			GameName:    s.GameName,
			GameId:      s.GameId,
			BetUnits:    s.BetUnits,
			BetUnit:     s.BetUnit,
			BetMode:     s.BetMode,
			BetMult:     s.BetUnit / (s.BetUnits[s.BetMode]),
			TotalBet:    s.Basic.TotalBet,
			TotalWin:    s.Basic.TotalWin,
			BaseWin:     s.Basic.BaseWin,
			BonusWin:    s.Basic.BonusWin,
			RTP:         s.rtp(),
			Trigger:     s.Basic.Trigger,
			TriggerRate: float64(s.Basic.Trigger) / float64(s.Basic.Rounds),
			NoWinRounds: s.Dist.TotalWinCollect[0],
			HitRate:     1.0 - (float64(s.Dist.TotalWinCollect[0]) / float64(s.Basic.Rounds)),
			Balls:       s.Basic.Balls,
			SpinsPlayed: s.Basic.SpinsPlayed,
			Rounds:      s.Basic.Rounds,
		},
		Mult: &stats.MultReport{
			TotalWinMult:      float64(s.Basic.TotalWin) / bufloat,
			BaseWinMult:       float64(s.Basic.BaseWin) / bufloat,
			BonusWinMult:      float64(s.Basic.BonusWin) / bufloat,
			TotalWinMultSqSum: float64(s.Basic.TotalWinSqSum) / bb,
			BaseWinMultSqSum:  float64(s.Basic.BaseWinSqSum) / bb,
			BonusWinMultSqSum: float64(s.Basic.BonusWinSqSum) / bb,
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.WinBucketStr(),
			TotalWinCollect: s.Dist.TotalWinCollect,
			BaseWinCollect:  s.Dist.BaseWinCollect,
			BonusWinCollect: s.Dist.BonusWinCollect,
			TotalWinDist:    nil,
			BaseWinDist:     nil,
			BonusWinDist:    nil,
		},
		Pocket: &stats.PocketReport{
			Slots:    s.PocketSlots,
			Landings: s.Pocket.Landings,
		},
		Effect: &stats.EffectReport{
			Names:  effectNames(),
			Counts: s.Effect.Counts,
		},
		Player: &stats.PlayerReport{
			InitBalance: s.Player.InitBalance,
			Balance:     s.Player.Balance,
			MaxBalance:  s.Player.MaxBalance,
			MinBalance:  s.Player.MinBalance,
			Bust:        s.Player.Bust,
			Cashout:     s.Player.Cashout,
			Alive:       s.Player.Alive,
		},
	}

	length := len(report.Dist.WinBucket)

	totalWinF := make([]float64, length)
	baseWinF := make([]float64, length)
	bonusWinF := make([]float64, length)
	rf := float64(report.Summary.Rounds)
	for i := range length {
		totalWinF[i] = float64(report.Dist.TotalWinCollect[i]) / rf
		baseWinF[i] = float64(report.Dist.BaseWinCollect[i]) / rf
		bonusWinF[i] = float64(report.Dist.BonusWinCollect[i]) / rf
	}

	report.Dist.TotalWinDist = totalWinF
	report.Dist.BaseWinDist = baseWinF
	report.Dist.BonusWinDist = bonusWinF

	return report
}

func (s *DropRecorder) rtp() float64 {
	if s.Basic.Rounds == 0 || s.Basic.TotalBet == 0 {
		return 0
	}
	return (float64(s.Basic.TotalWin) / float64(s.Basic.TotalBet))
}

func (s *DropRecorder) recordBasic(dr *buf.DropResult) {
	w := dr.TotalWin
	bw := 0
	for i := range dr.Spins {
		if !dr.Spins[i].Bonus {
			bw += dr.Spins[i].Win
		}
	}
	fw := w - bw

	// Basic
	s.Basic.TotalBet += dr.Bet
	s.Basic.TotalWin += w
	s.Basic.BaseWin += bw
	s.Basic.BonusWin += fw
	s.Basic.TotalWinSqSum += w * w
	s.Basic.BaseWinSqSum += bw * bw
	s.Basic.BonusWinSqSum += fw * fw

	if dr.Bonus {
		s.Basic.Trigger++
	}
	s.Basic.Balls += len(dr.Balls)
	s.Basic.SpinsPlayed += len(dr.Spins)
	s.Basic.Rounds++
}

func (s *DropRecorder) recordDist(dr *buf.DropResult) {
	d := s.Dist
	b := d.Bucket
	tw := dr.TotalWin
	bw := 0
	for i := range dr.Spins {
		if !dr.Spins[i].Bonus {
			bw += dr.Spins[i].Win
		}
	}
	fw := tw - bw

	d.TotalWinCollect[b.Index(tw)]++
	d.BaseWinCollect[b.Index(bw)]++
	d.BonusWinCollect[b.Index(fw)]++
}

func (s *DropRecorder) recordPocket(dr *buf.DropResult) {
	for i := range dr.Balls {
		p := dr.Balls[i].Pocket
		if p >= 0 && p < len(s.Pocket.Landings) {
			s.Pocket.Landings[p]++
		}
	}
}

func (s *DropRecorder) recordEffect(dr *buf.DropResult) {
	for i := range dr.Spins {
		for _, eff := range dr.Spins[i].Triggers {
			if int(eff) >= 0 && int(eff) < len(s.Effect.Counts) {
				s.Effect.Counts[eff]++
			}
		}
	}
}

func (s *DropRecorder) recordPlayer(dr *buf.DropResult) bool {
	p := s.Player
	w := dr.TotalWin
	b := s.BetUnit

	// 更新資金
	p.Balance -= b
	p.Balance += w

	// 更新歷史最高資產
	if p.Balance > p.MaxBalance {
		p.MaxBalance = p.Balance
	}
	// 更新歷史最低資產
	if p.Balance < p.MinBalance {
		p.MinBalance = p.Balance
	}

	// 更新結局
	leave := false
	if p.Balance < b {
		p.Bust = true
		leave = true
	}
	if p.Balance >= p.leaveLine {
		p.Cashout = true
		leave = true
	}
	return leave
}

func effectNames() []string {
	names := make([]string, spec.EffectCount)
	for i := range names {
		names[i] = spec.EffectType(i).String()
	}
	return names
}

func newDistRecord(bu int) *DistRecord {
	d := new(DistRecord)
	d.Bucket = stats.Buckets.GetBucketByBetUnit(bu)
	d.TotalWinCollect = make([]int, len(stats.Buckets.WinBucketStr()))
	d.BaseWinCollect = make([]int, len(stats.Buckets.WinBucketStr()))
	d.BonusWinCollect = make([]int, len(stats.Buckets.WinBucketStr()))
	return d
}

func newPlayerRecord(bu int, initBets int) *PlayerRecord {

	p := new(PlayerRecord)

	b := bu * initBets // 初始帶入總金額(依最低押注額看)

	p.InitBalance = b
	p.Balance = b
	p.MaxBalance = b
	p.MinBalance = b
	p.Cashout = false
	p.Bust = false
	p.Alive = false
	p.leaveLine = 3 * b // 設定離場條件(3倍本金)

	return p
}
