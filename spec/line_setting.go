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

import (
	"fmt"

	"github.com/zintix-labs/pegdrop/errs"
)

// LineSetting 描述付費線表。
//
// LineTable 每條線為「每一軸取哪一列」的列索引序列（長度 = 軸數），
// Init 時轉換為盤面格子索引的平坦陣列，計分端免乘法直接取格。
// 連線一律由最左軸起算（LTR），不支援反向或中段起算。
type LineSetting struct {
	LineTable      [][]int16 `yaml:"line_table"  json:"line_table"`
	LineCount      int       `yaml:"-"           json:"-"`
	LineTableFlat  []int16   `yaml:"-"           json:"-"`
	LineTableIndex []int     `yaml:"-"           json:"-"`
	initFlag       bool
}

// Init 驗證線表並建立平坦化索引。
func (ls *LineSetting) Init() error {
	if ls.initFlag {
		return nil
	}

	if len(ls.LineTable) == 0 {
		return errs.NewFatal("line_table is empty")
	}

	ls.LineCount = len(ls.LineTable)
	ls.LineTableFlat = make([]int16, 0, ls.LineCount*GridCols)
	ls.LineTableIndex = make([]int, ls.LineCount)

	for lineIdx, rows := range ls.LineTable {
		if len(rows) != GridCols {
			return errs.NewFatal(fmt.Sprintf("line %d: want %d entries, got %d", lineIdx, GridCols, len(rows)))
		}
		ls.LineTableIndex[lineIdx] = lineIdx * GridCols
		for col, row := range rows {
			if row < 0 || row >= GridRows {
				return errs.NewFatal(fmt.Sprintf("line %d col %d: row %d out of range", lineIdx, col, row))
			}
			ls.LineTableFlat = append(ls.LineTableFlat, row*GridCols+int16(col))
		}
	}

	ls.initFlag = true
	return nil
}
