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

package board

import "github.com/zintix-labs/pegdrop/sdk/buf"

// Ball 落球的暫態運動狀態。
// 由 Board.Spawn 建立，落袋後凍結速度並保留最終位置。
type Ball struct {
	X  float64
	Y  float64
	VX float64
	VY float64

	Landed bool
	Pocket int
	Steps  int
	SpawnX float64

	// Trace 非 nil 時每步追加球位，供渲染端重播。
	Trace []buf.TracePoint
}

// Spawn 在盤頂生成一顆球，offset 為相對盤面中線的水平位移。
func (bd *Board) Spawn(offset float64, trace bool) *Ball {
	s := bd.Setting
	b := &Ball{
		X:      s.Width/2 + offset,
		Y:      s.BallRadius * 2,
		Pocket: -1,
	}
	b.SpawnX = b.X
	if trace {
		b.Trace = make([]buf.TracePoint, 0, 256)
	}
	return b
}
