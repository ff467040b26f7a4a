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

import (
	"math"

	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/sdk/core"
)

// Step 將一顆球推進一個固定時間步，回傳是否已落袋。
//
// 積分順序：速度加重力 → 位置加速度 → 水平速度乘摩擦 →
// 釘碰撞 → 牆效果導向 → 側牆碰撞 → 落袋判定。
// 已落袋的球為 no-op。
func (bd *Board) Step(b *Ball, c *core.Core, leftWall, rightWall bool) bool {
	if b.Landed {
		return true
	}
	s := bd.Setting

	// 積分
	b.VY += s.Gravity
	b.X += b.VX
	b.Y += b.VY
	b.VX *= s.FrictionX

	bd.collidePegs(b, c)
	bd.steerWalls(b, leftWall, rightWall)
	bd.collideSides(b)

	b.Steps++
	if b.Trace != nil {
		b.Trace = append(b.Trace, buf.TracePoint{X: float32(b.X), Y: float32(b.Y)})
	}

	// 落袋：進入袋帶即判定，速度凍結
	if b.Y >= s.PocketY {
		b.Landed = true
		b.Pocket = bd.PocketAt(b.X)
		b.VX = 0
		b.VY = 0
		return true
	}
	return false
}

// RunAll 交錯推進所有球直到全部落袋，回傳落袋順序（balls 的索引）。
//
// 每個 tick 對每顆未落袋的球各推進一步，不允許跳步；
// 同一 tick 內落袋者依球序排入。步數超過上限視為設定錯誤。
func (bd *Board) RunAll(balls []*Ball, c *core.Core, leftWall, rightWall bool) ([]int, error) {
	order := make([]int, 0, len(balls))
	maxSteps := bd.Setting.MaxSteps

	for step := 0; len(order) < len(balls); step++ {
		if step >= maxSteps {
			return nil, errs.Fatalf("ball exceeded %d steps without landing", maxSteps)
		}
		for i, b := range balls {
			if b.Landed {
				continue
			}
			if bd.Step(b, c, leftWall, rightWall) {
				order = append(order, i)
			}
		}
	}
	return order, nil
}

// ============================================================
// ** 以下內部方法 **
// ============================================================

// collidePegs 解析球與釘的接觸。
//
// 接觸時沿接觸法線推出至兩半徑和再加 1，反彈方向為擾動後的法線角，
// 速度取 max(min_bounce, restitution*原速)，垂直分量強制非負，
// 確保球不會往上穿回釘場、落袋時間有限。
func (bd *Board) collidePegs(b *Ball, c *core.Core) {
	s := bd.Setting

	// 只掃描垂直方向可能接觸的釘列
	lo := int(math.Floor((b.Y - bd.contact - s.PegTop) / s.PegRowGap))
	hi := int(math.Floor((b.Y + bd.contact - s.PegTop) / s.PegRowGap))
	if hi < 0 || lo >= s.PegRows {
		return
	}
	if lo < 0 {
		lo = 0
	}
	if hi >= s.PegRows {
		hi = s.PegRows - 1
	}

	for r := lo; r <= hi; r++ {
		pegs := bd.Pegs[bd.rowStart[r]:bd.rowStart[r+1]]
		for i := range pegs {
			p := &pegs[i]
			dx := b.X - p.X
			dy := b.Y - p.Y
			d2 := dx*dx + dy*dy
			if d2 >= bd.contactSq {
				continue
			}

			// 球心與釘心重合時以正下方為名義法線，避免除以零
			nx, ny := 0.0, 1.0
			if d2 > 0 {
				d := math.Sqrt(d2)
				nx = dx / d
				ny = dy / d
			}

			// 推出接觸
			sep := bd.contact + 1
			b.X = p.X + nx*sep
			b.Y = p.Y + ny*sep

			// 反彈：擾動接觸角、衰減速度、保底反彈速
			speed := math.Hypot(b.VX, b.VY)
			ang := math.Atan2(ny, nx) + c.Spread(s.MaxPerturb)
			ns := s.Restitution * speed
			if ns < s.MinBounce {
				ns = s.MinBounce
			}
			b.VX = math.Cos(ang) * ns
			b.VY = math.Sin(ang) * ns
			if b.VY < 0 {
				b.VY = -b.VY
			}
		}
	}
}

// steerWalls 牆效果導向帶：位於帶內且過了盤頂下限的球，
// 每步受到朝對應 Bonus 袋的固定水平推力。
// 這是導向力而非硬碰撞，球仍可能機率性穿越。
func (bd *Board) steerWalls(b *Ball, leftWall, rightWall bool) {
	if b.Y < bd.Setting.WallMinY {
		return
	}
	half := bd.Setting.WallBandHalf
	nudge := bd.Setting.WallNudge
	if leftWall && math.Abs(b.X-bd.wallLeftX) <= half {
		b.VX -= nudge
	}
	if rightWall && math.Abs(b.X-bd.wallRightX) <= half {
		b.VX += nudge
	}
}

// collideSides 側牆碰撞：位置夾擠回盤內、水平速度反向並衰減。
func (bd *Board) collideSides(b *Ball) {
	s := bd.Setting
	r := s.BallRadius
	if b.X < r {
		b.X = r
		b.VX = -b.VX * s.SideDamping
	} else if b.X > s.Width-r {
		b.X = s.Width - r
		b.VX = -b.VX * s.SideDamping
	}
}
