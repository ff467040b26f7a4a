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

package optimizer

import (
	"github.com/zintix-labs/pegdrop/sdk/buf"
)

const (
	base      = "base"
	bonus     = "bonus"
	mod       = "mod"
	multiball = "multiball"
)

// IsTag 判斷一個落球回合是否具有某個特徵
type IsTag func(dr *buf.DropResult) bool

type tagFn func(dr *buf.DropResult) (string, bool)

var tagFns = map[string]tagFn{
	base:      isBaseOnly,
	bonus:     isBonusEntered,
	mod:       isModTriggered,
	multiball: isMultiBall,
}

// isBaseOnly：整個回合沒進加倍回合（純底局）
func isBaseOnly(dr *buf.DropResult) (string, bool) {
	if !dr.Bonus {
		return base, true
	}
	return "", false
}

// isBonusEntered：任一顆球落入 BONUS 袋
func isBonusEntered(dr *buf.DropResult) (string, bool) {
	if dr.Bonus {
		return bonus, true
	}
	return "", false
}

// isModTriggered：旋轉會期中至少觸發一次中列修飾
func isModTriggered(dr *buf.DropResult) (string, bool) {
	for i := range dr.Spins {
		if len(dr.Spins[i].Triggers) > 0 {
			return mod, true
		}
	}
	return "", false
}

// isMultiBall：本回合落下超過一顆球（extra ball 修飾生效）
func isMultiBall(dr *buf.DropResult) (string, bool) {
	if len(dr.Balls) > 1 {
		return multiball, true
	}
	return "", false
}

// RegisterTag 註冊自訂特徵；重複名稱回傳 false
func RegisterTag(tag string, isTag IsTag) bool {
	if _, ok := tagFns[tag]; !ok {
		tagFns[tag] = func(dr *buf.DropResult) (string, bool) {
			if isTag(dr) {
				return tag, true
			}
			return "", false
		}
		return true
	}
	return false
}

func hasTag(tag string) bool {
	_, ok := tagFns[tag]
	return ok
}

// Tagers 將落球結果打上特徵標籤，供 class 篩選樣本
type Tagers struct {
	tags []string
	fns  []tagFn
}

// GetTager 取得指定特徵集合的標籤器；未註冊的名稱會被略過
// （ClassSetting.validate 已在載入設定時擋掉未知標籤）。
func GetTager(tags ...string) *Tagers {
	tg := &Tagers{
		tags: tags,
		fns:  make([]tagFn, 0, len(tags)),
	}
	for _, t := range tags {
		if fn, ok := tagFns[t]; ok {
			tg.fns = append(tg.fns, fn)
		}
	}
	return tg
}

// TagInto 將 dr 命中的標籤寫入 buf（重用呼叫端切片），回傳新的 slice header。
func (t *Tagers) TagInto(dr *buf.DropResult, buf []string) []string {
	buf = buf[:0]
	for _, fn := range t.fns {
		if name, ok := fn(dr); ok {
			buf = append(buf, name)
		}
	}
	return buf
}

// sub 判斷 want 是否為 got 的子集合（want 全部命中才算匹配）
func sub(want []string, got []string) bool {
	for _, w := range want {
		found := false
		for _, g := range got {
			if w == g {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
