package buf

import "github.com/zintix-labs/pegdrop/spec"

// GameState 機台的持久狀態快照。
//
// Phase 三態互斥：Idle 才能受理下注/落球；Dropping 與 Spinning
// 只存在於 Drop 呼叫內部（回合同步解算，返回時必回到 Idle）。
type GameState struct {
	Balance        int            `json:"balance"`         // 餘額（分）
	CurrentBet     int            `json:"current_bet"`     // 當前押注檔位（分）
	Phase          spec.PhaseType `json:"-"`               // 當前階段
	PhaseName      string         `json:"phase"`           // 階段名稱（序列化用）
	SpinsRemaining int            `json:"spins_remaining"` // 旋轉階段剩餘次數
	InBonus        bool           `json:"in_bonus"`        // 本次會期是否加倍
	Mods           spec.ModState  `json:"mods"`            // 未消耗的修飾狀態
}
