package buf

import (
	"github.com/zintix-labs/pegdrop/spec"
)

const (
	capBallGrow = 4
	capSpinGrow = 8
	capLineGrow = 10
)

// TracePoint 單步球位，供外部渲染端重播軌跡。
type TracePoint struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// BallResult 保存單顆球的落袋結果（依落袋順序紀錄）。
type BallResult struct {
	Pocket int          `json:"pocket"`
	Spins  int          `json:"spins"`
	Bonus  bool         `json:"bonus"`
	Steps  int          `json:"steps"`
	SpawnX float64      `json:"spawn_x"`
	Trace  []TracePoint `json:"trace,omitempty"`
}

// LineDetail 單線中獎細項。
type LineDetail struct {
	LineID   int   `json:"line_id"`
	SymbolID int16 `json:"symbol_id"`
	Count    int   `json:"count"`
	Mult     int   `json:"mult"`
}

// SpinResult 保存旋轉階段中一次完整盤面評估的結果。
//
// Screen 為固定尺寸的盤面快照（row*cols+col 索引）；
// WinMask 為中獎格的位元聯集，供渲染端標示。
type SpinResult struct {
	Screen   [spec.GridCols * spec.GridRows]int16 `json:"screen"`
	LineMult int                                  `json:"line_mult"` // 各線倍數總和（未乘押注/加倍）
	Win      int                                  `json:"win"`       // 實際贏分（分）
	Bonus    bool                                 `json:"bonus"`     // 此次旋轉是否處於加倍回合
	WinMask  uint16                               `json:"win_mask"`
	Details  []LineDetail                         `json:"details,omitempty"`
	Triggers []spec.EffectType                    `json:"triggers,omitempty"`
}

// reset 清空單次旋轉的累積內容，保留切片容量。
func (sr *SpinResult) reset() {
	for i := range sr.Screen {
		sr.Screen[i] = 0
	}
	sr.LineMult = 0
	sr.Win = 0
	sr.Bonus = false
	sr.WinMask = 0
	sr.Details = sr.Details[:0]
	sr.Triggers = sr.Triggers[:0]
}

// RecordLine 紀錄一筆中獎線，並將命中格合併進 WinMask。
func (sr *SpinResult) RecordLine(lineID int, symbolID int16, count int, mult int, cells []int16) {
	sr.LineMult += mult
	sr.Details = append(sr.Details, LineDetail{
		LineID:   lineID,
		SymbolID: symbolID,
		Count:    count,
		Mult:     mult,
	})
	for _, c := range cells {
		sr.WinMask |= 1 << uint(c)
	}
}

// DropResult 保存一次完整落球回合的結果：
// 所有球的落袋、隨後的旋轉會期，以及結算後的餘額與修飾狀態。
//
// 同一 Machine 重複使用同一份 DropResult，呼叫端取得後應立即消費，
// 下一次 Drop 會覆寫內容。
type DropResult struct {
	GameName string   `json:"game_name"`
	GameID   spec.GID `json:"game_id"`

	Bet           int `json:"bet"`
	BalanceBefore int `json:"balance_before"`
	BalanceAfter  int `json:"balance_after"`
	TotalWin      int `json:"total_win"`

	Balls []BallResult `json:"balls"`
	Spins []SpinResult `json:"spins"`

	// SpinsAwarded 為落袋判定完成後的旋轉數（多球依落袋順序逐顆覆寫後的結果）。
	SpinsAwarded int           `json:"spins_awarded"`
	Bonus        bool          `json:"bonus"`
	ModsAfter    spec.ModState `json:"mods_after"`

	spinPool []SpinResult // 已配置的 SpinResult 重用池
}

// NewDropResult 建立指定機台的 DropResult 實體，並預先配置基本容量。
func NewDropResult(gs *spec.GameSetting) *DropResult {
	pool := make([]SpinResult, 0, capSpinGrow)
	dr := &DropResult{
		GameName: gs.GameName,
		GameID:   gs.GameID,
		Balls:    make([]BallResult, 0, capBallGrow),
		Spins:    pool,
		spinPool: pool,
	}
	return dr
}

// Reset 重置累積資料，保留已配置的內部切片容量。
func (dr *DropResult) Reset() {
	dr.Bet = 0
	dr.BalanceBefore = 0
	dr.BalanceAfter = 0
	dr.TotalWin = 0
	dr.Balls = dr.Balls[:0]
	// SpinResult 池保留，其 Details/Triggers 容量下次直接重用
	dr.Spins = dr.spinPool[:0]
	dr.SpinsAwarded = 0
	dr.Bonus = false
	dr.ModsAfter = spec.ModState{}
}

// AppendBall 紀錄一顆球的落袋結果。
func (dr *DropResult) AppendBall(b BallResult) {
	dr.Balls = append(dr.Balls, b)
}

// NextSpin 取得下一個可寫入的 SpinResult（重用池內已配置者）。
//
// 不變式：spinPool 永遠是完整池切片，Spins = spinPool[:已用數]。
func (dr *DropResult) NextSpin() *SpinResult {
	n := len(dr.Spins)
	if n >= len(dr.spinPool) {
		dr.spinPool = append(dr.spinPool, SpinResult{Details: make([]LineDetail, 0, capLineGrow)})
	}
	dr.Spins = dr.spinPool[:n+1]
	sr := &dr.Spins[n]
	sr.reset()
	return sr
}

// SettleSpin 將一次旋轉的贏分累積到回合總計。
func (dr *DropResult) SettleSpin(sr *SpinResult) {
	dr.TotalWin += sr.Win
}
