package spec

// GID 遊戲識別碼，報表與 API 回應皆以此標示設定檔來源。
type GID int

// GridCols / GridRows 固定盤面尺寸：5 軸 x 3 列。
// 盤面格子索引一律為 row*GridCols+col。
const (
	GridCols = 5
	GridRows = 3
)

// PhaseType 表示遊戲當前階段，三者互斥。
type PhaseType uint8

const (
	PhaseIdle PhaseType = iota
	PhaseDropping
	PhaseSpinning
)

// ModState 持久化的修飾狀態。
// 牆效果於下一次落袋判定時消耗；加球檔位於下一次落球生成時消耗。
type ModState struct {
	LeftWall      bool `json:"left_wall"`
	RightWall     bool `json:"right_wall"`
	ExtraBallTier int  `json:"extra_ball_tier"`
}

var phaseNameMap = map[PhaseType]string{
	PhaseIdle:     "idle",
	PhaseDropping: "dropping",
	PhaseSpinning: "spinning",
}

func (p PhaseType) String() string {
	if str, ok := phaseNameMap[p]; ok {
		return str
	}
	return "unknown"
}
