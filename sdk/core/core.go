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

package core

import "math"

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// 要求同時提供 4 個方法（Uint64 / Float64 / UintN / IntN）而非只要求 Uint64，
// 是為了讓各 PRNG 實作依自身原生輸出寬度（32-bit 或 64-bit）選擇最快的
// bounded 生成路徑；Float64 的精度（32-bit vs 53-bit）也由實作自行決定。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：在同一個實作與同一個版本下，New(seed) 必須是決定性的——
	// 相同的 seed 必須產生相同的初始內部狀態與輸出序列。
	// seed 的生命週期由引擎統一管理：外部未提供時由引擎產生並保存 baseSeed，
	// 後續所有 Machine/Sim 皆由 baseSeed 以固定算法派生子 seed。
	New(int64) PRNG
}

// DefaultPRNG 以 PCG64 實作預設的 PRNGFactory。
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Fast32PRNG 以 PCG32 實作 PRNGFactory，供 32-bit 平台或低精度需求選用。
type Fast32PRNG struct{}

// New 滿足合約
func (d *Fast32PRNG) New(seed int64) PRNG {
	return newPCG32WithSeed(seed)
}

func Fast32() *Fast32PRNG {
	return &Fast32PRNG{}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
// 熱路徑中只使用哨兵值回傳
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	idx := c.IntN(len(src))
	return src[idx]
}

// Spread 回傳 [-max, max) 的均勻亂數。
// 物理碰撞的反彈角擾動使用此方法，max 即最大偏移角（弧度）。
func (c *Core) Spread(max float64) float64 {
	return (c.Float64()*2 - 1) * max
}

// ExpFloat64 回傳期望值為 1 的指數分布亂數（反函數法）。
func (c *Core) ExpFloat64() float64 {
	return -math.Log(1 - c.Float64())
}

// NormFloat64 回傳標準常態分布亂數（Box–Muller 反函數法）。
func (c *Core) NormFloat64() float64 {
	u1 := 1 - c.Float64() // (0,1]，避免 log(0)
	u2 := c.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// ShuffleInts 使用 Fisher-Yates 演算法對 []int 進行就地隨機重排。
//
// 所有 N! 種排列出現機率嚴格相等；O(N) 時間、零配置。
func (c *Core) ShuffleInts(src []int) {
	if len(src) <= 1 {
		return
	}

	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}
