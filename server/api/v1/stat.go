package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/pegdrop/recorder"
	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/spec"
	"github.com/zintix-labs/pegdrop/stats"
)

// DistStat 接收外部已經跑完的逐回合數列，重建統計報表。
//
// 用途：業務端自己存了逐回合的 total/base/bonus 贏分與觸發記號，
// 想用同一套統計口徑（bucket、RTP、CI）產報表而不重跑模擬。
type DistStat struct {
	GameName string `json:"game_name"`
	BetUnits []int  `json:"bet_units"`
	BetMode  int    `json:"bet_mode"`
	Bet      int    `json:"bet"`
	// 逐回合數列（長度取最短對齊）
	TotalWins []int `json:"total_wins"`
	BaseWins  []int `json:"base_wins"`
	BonusWins []int `json:"bonus_wins"`
	Triggers  []int `json:"triggers"`
}

func Stat(w http.ResponseWriter, r *http.Request) {
	// Post方法限定
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// 嘗試解析
	dst := new(DistStat)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 對齊局數
	round := min(len(dst.TotalWins), len(dst.BaseWins), len(dst.BonusWins), len(dst.Triggers))
	if round < 1 {
		http.Error(w, "round must > 0", http.StatusBadRequest)
		return
	}
	if len(dst.BetUnits) == 0 || dst.BetMode < 0 || dst.BetMode >= len(dst.BetUnits) {
		http.Error(w, "bet_units/bet_mode invalid", http.StatusBadRequest)
		return
	}

	// 繞過New方法，自己構造 DropRecorder (沒有完整 GameSetting 可用)
	rec := &recorder.DropRecorder{
		GameName: dst.GameName,
		BetUnits: dst.BetUnits,
		BetUnit:  dst.BetUnits[dst.BetMode],
		BetMode:  dst.BetMode,
		Basic:    new(recorder.BasicRecord),
		Dist:     new(recorder.DistRecord),
		Pocket:   &recorder.PocketRecord{Landings: []int{}},
		Effect:   &recorder.EffectRecord{Counts: make([]int, spec.EffectCount)},
		Player:   new(recorder.PlayerRecord),
	}
	rec.Dist.Bucket = stats.Buckets.GetBucketByBetUnit(rec.BetUnit)
	rec.Dist.TotalWinCollect = make([]int, len(stats.Buckets.WinBucketStr()))
	rec.Dist.BaseWinCollect = make([]int, len(stats.Buckets.WinBucketStr()))
	rec.Dist.BonusWinCollect = make([]int, len(stats.Buckets.WinBucketStr()))

	// 繞過New方法，自己構造 DropResult：一回合還原成
	// 一個非加倍旋轉（base）加上觸發時的一個加倍旋轉（bonus）
	dr := &buf.DropResult{
		GameName: dst.GameName,
		Spins:    make([]buf.SpinResult, 0, 2),
	}
	for i := 0; i < round; i++ {
		dr.Bet = dst.Bet
		dr.TotalWin = dst.TotalWins[i]
		dr.Bonus = dst.Triggers[i] > 0
		dr.Spins = dr.Spins[:0]
		dr.Spins = append(dr.Spins, buf.SpinResult{Win: dst.BaseWins[i]})
		if dst.Triggers[i] > 0 {
			dr.Spins = append(dr.Spins, buf.SpinResult{Win: dst.BonusWins[i], Bonus: true})
		}
		// 紀錄
		rec.Record(dr)
	}
	st := rec.Done()
	st.Done()
	st.Summary.GameName = dst.GameName
	if err := json.NewEncoder(w).Encode(st); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
}
