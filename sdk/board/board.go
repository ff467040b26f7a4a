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

// Package board 實作釘板物理：固定時間步積分、釘/側牆碰撞、
// 牆效果導向帶與落袋判定。
//
// 佈局為衍生資料：第 r 列（0 起算）有 r+3 根釘，等距且水平置中；
// 落袋區域等寬鋪滿盤底。只在建構時生成一次。
package board

import (
	"github.com/zintix-labs/pegdrop/spec"
)

// Peg 單根釘的固定位置。半徑全板一致，存於 Board。
type Peg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Board 保存釘板幾何與物理常數的預處理結果。
// 建構後不再變動，可被多顆球併發唯讀使用。
type Board struct {
	Setting *spec.BoardSetting

	Pegs        []Peg
	rowStart    []int // 每列第一根釘在 Pegs 的索引（末端多一格哨兵）
	PocketCount int
	ZoneWidth   float64

	// 預先算好的碰撞/導向常數
	contact    float64 // 球半徑+釘半徑
	contactSq  float64
	wallLeftX  float64 // 左導向帶中心（左側 Bonus 袋中心）
	wallRightX float64
}

// NewBoard 依設定生成釘場與落袋區域。
func NewBoard(bs *spec.BoardSetting, pocketCount int) (*Board, error) {
	if err := bs.Init(); err != nil {
		return nil, err
	}

	bd := &Board{
		Setting:     bs,
		PocketCount: pocketCount,
		ZoneWidth:   bs.Width / float64(pocketCount),
	}
	bd.contact = bs.BallRadius + bs.PegRadius
	bd.contactSq = bd.contact * bd.contact
	bd.wallLeftX = bd.ZoneWidth / 2
	bd.wallRightX = bs.Width - bd.ZoneWidth/2

	// 釘場生成：第 r 列 r+3 根，間距 Width/(n+1)，水平置中
	bd.rowStart = make([]int, 0, bs.PegRows+1)
	for r := 0; r < bs.PegRows; r++ {
		bd.rowStart = append(bd.rowStart, len(bd.Pegs))
		n := r + 3
		gap := bs.Width / float64(n+1)
		y := bs.PegTop + float64(r)*bs.PegRowGap
		for i := 0; i < n; i++ {
			bd.Pegs = append(bd.Pegs, Peg{X: float64(i+1) * gap, Y: y})
		}
	}
	bd.rowStart = append(bd.rowStart, len(bd.Pegs))

	return bd, nil
}

// PocketAt 回傳 x 座標所屬的落袋索引。
// 區域完整鋪滿盤寬，邊界值夾擠進合法範圍。
func (bd *Board) PocketAt(x float64) int {
	idx := int(x / bd.ZoneWidth)
	if idx < 0 {
		return 0
	}
	if idx >= bd.PocketCount {
		return bd.PocketCount - 1
	}
	return idx
}

// ZoneSpan 回傳落袋 i 的水平範圍 [lo, hi)。
func (bd *Board) ZoneSpan(i int) (lo, hi float64) {
	return float64(i) * bd.ZoneWidth, float64(i+1) * bd.ZoneWidth
}
