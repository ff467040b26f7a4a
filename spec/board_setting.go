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

package spec

import "github.com/zintix-labs/pegdrop/errs"

// BoardSetting 描述釘板幾何與物理常數。
//
// 釘板為三角交錯排列：第 r 列（0 起算）有 r+3 根釘，等距且水平置中。
// 物理步進為固定時間步：每步速度加上重力、位置加上速度、
// 水平速度乘上摩擦係數，再處理釘/牆/落袋碰撞。
type BoardSetting struct {
	Width        float64 `yaml:"width"          json:"width"`
	Height       float64 `yaml:"height"         json:"height"`
	PegRows      int     `yaml:"peg_rows"       json:"peg_rows"`
	PegTop       float64 `yaml:"peg_top"        json:"peg_top"`
	PegRowGap    float64 `yaml:"peg_row_gap"    json:"peg_row_gap"`
	BallRadius   float64 `yaml:"ball_radius"    json:"ball_radius"`
	PegRadius    float64 `yaml:"peg_radius"     json:"peg_radius"`
	PocketHeight float64 `yaml:"pocket_height"  json:"pocket_height"`

	Gravity     float64 `yaml:"gravity"      json:"gravity"`
	FrictionX   float64 `yaml:"friction_x"   json:"friction_x"`
	Restitution float64 `yaml:"restitution"  json:"restitution"`
	MinBounce   float64 `yaml:"min_bounce"   json:"min_bounce"`
	MaxPerturb  float64 `yaml:"max_perturb"  json:"max_perturb"`
	SideDamping float64 `yaml:"side_damping" json:"side_damping"`

	WallBandHalf float64 `yaml:"wall_band_half" json:"wall_band_half"`
	WallMinY     float64 `yaml:"wall_min_y"     json:"wall_min_y"`
	WallNudge    float64 `yaml:"wall_nudge"     json:"wall_nudge"`

	// MaxSteps 為單顆球的步數上限，純粹防呆；
	// 重力恆向下且釘碰撞垂直分量不為負，正常設定必在此之前落袋。
	MaxSteps int `yaml:"max_steps" json:"max_steps"`

	// 多球時各球從相異的出生位移中加權抽出（不放回）。
	SpawnOffsets []float64 `yaml:"spawn_offsets" json:"spawn_offsets"`
	SpawnWeights []int     `yaml:"spawn_weights" json:"spawn_weights"`

	PocketY float64 `yaml:"-" json:"-"`

	initFlag bool
}

// Init 檢查幾何與物理常數的合法性並計算衍生值。
func (bs *BoardSetting) Init() error {
	if bs.initFlag {
		return nil
	}

	if bs.Width <= 0 || bs.Height <= 0 {
		return errs.NewFatal("board dimensions must be positive")
	}
	if bs.PegRows <= 0 {
		return errs.NewFatal("peg_rows must be positive")
	}
	if bs.BallRadius <= 0 || bs.PegRadius <= 0 {
		return errs.NewFatal("radii must be positive")
	}
	if bs.PocketHeight <= 0 || bs.PocketHeight >= bs.Height {
		return errs.NewFatal("pocket_height out of range")
	}
	if bs.Gravity <= 0 {
		return errs.NewFatal("gravity must be positive")
	}
	if bs.FrictionX <= 0 || bs.FrictionX > 1 {
		return errs.NewFatal("friction_x must be in (0,1]")
	}
	if bs.Restitution < 0 || bs.Restitution >= 1 {
		return errs.NewFatal("restitution must be in [0,1)")
	}
	if bs.MinBounce <= 0 {
		return errs.NewFatal("min_bounce must be positive")
	}
	if bs.MaxPerturb < 0 {
		return errs.NewFatal("max_perturb must be non-negative")
	}
	if bs.SideDamping < 0 || bs.SideDamping > 1 {
		return errs.NewFatal("side_damping must be in [0,1]")
	}
	if bs.MaxSteps <= 0 {
		bs.MaxSteps = 4000
	}
	if len(bs.SpawnOffsets) == 0 {
		bs.SpawnOffsets = []float64{0}
		bs.SpawnWeights = []int{1}
	}
	if len(bs.SpawnWeights) == 0 {
		// 未給權重默認等權重
		bs.SpawnWeights = make([]int, len(bs.SpawnOffsets))
		for i := range bs.SpawnWeights {
			bs.SpawnWeights[i] = 1
		}
	}
	if len(bs.SpawnOffsets) != len(bs.SpawnWeights) {
		return errs.NewFatal("len(spawn_offsets) != len(spawn_weights)")
	}

	// 釘板最底列必須落在落袋帶之上
	bs.PocketY = bs.Height - bs.PocketHeight
	lastRowY := bs.PegTop + float64(bs.PegRows-1)*bs.PegRowGap
	if lastRowY >= bs.PocketY {
		return errs.NewFatal("peg field overlaps pocket strip")
	}

	bs.initFlag = true
	return nil
}
