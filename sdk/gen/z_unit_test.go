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

package gen

import (
	"testing"

	"github.com/zintix-labs/pegdrop/sdk/core"
	"github.com/zintix-labs/pegdrop/spec"
)

func testSymbolSetting(t *testing.T) *spec.SymbolSetting {
	t.Helper()
	ss := &spec.SymbolSetting{
		SymbolUsedStr: []string{"W1", "H1", "L1", "L2"},
		Weights:       []int{1, 3, 6, 6},
		PayTable: [][]int{
			{5, 10, 50},
			{3, 6, 20},
			{1, 2, 8},
			{1, 2, 8},
		},
	}
	if err := ss.Init(); err != nil {
		t.Fatalf("symbol setting init error: %v", err)
	}
	return ss
}

func TestGenScreenShapeAndRange(t *testing.T) {
	ss := testSymbolSetting(t)
	c := core.New(core.Default().New(1))
	g := NewScreenGenerator(c, ss)

	screen := g.GenScreen()
	if len(screen) != spec.GridCols*spec.GridRows {
		t.Fatalf("expected %d cells, got %d", spec.GridCols*spec.GridRows, len(screen))
	}
	for i, v := range screen {
		if v < 0 || int(v) >= ss.SymbolCount {
			t.Fatalf("cell %d out of range: %d", i, v)
		}
	}
}

func TestGenScreenDeterministic(t *testing.T) {
	ss1 := testSymbolSetting(t)
	ss2 := testSymbolSetting(t)
	g1 := NewScreenGenerator(core.New(core.Default().New(77)), ss1)
	g2 := NewScreenGenerator(core.New(core.Default().New(77)), ss2)

	for round := 0; round < 10; round++ {
		s1 := g1.GenScreen()
		s2 := g2.GenScreen()
		for i := range s1 {
			if s1[i] != s2[i] {
				t.Fatalf("round %d cell %d: %d != %d", round, i, s1[i], s2[i])
			}
		}
	}
}

func TestGenScreenReusesBuffer(t *testing.T) {
	ss := testSymbolSetting(t)
	g := NewScreenGenerator(core.New(core.Default().New(3)), ss)

	s1 := g.GenScreen()
	s2 := g.GenScreen()
	if &s1[0] != &s2[0] {
		t.Fatalf("expected generator to reuse its screen buffer")
	}
}
