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

package pegdrop

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/pegdrop/dto"
	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/spec"
)

// DropRuntime 對外服務的資料面入口：每個遊戲一個機台池，依 GID 路由請求。
type DropRuntime struct {
	// build-time 來源（只讀引用）
	pd *Pegdrop // 方便取 catalog/corefactory 與共用一些 helper

	// data-plane：關鍵主池（每個遊戲一個 pool）
	pools map[spec.GID]*MachinePool
	ids   []spec.GID // 固定順序，用於觀測/列舉（來自 cat.IDs()）

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	// runtime 行為設定（一期先簡單，之後可擴展）
	poolSize int // 每個遊戲的池大小（BuildRuntime(n) 的 n）
}

func (rt *DropRuntime) Drop(ctx context.Context, req *dto.DropRequest) (dto.DropResult, error) {
	select {
	case <-ctx.Done():
		// 如果通知取消
		return dto.DropResult{}, errs.NewWarn("drop canceled/timeout: " + ctx.Err().Error())
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads/telemetry.
		rt.closed.Store(true)
		return dto.DropResult{}, errs.NewFatal("drop runtime closed: " + rt.ClosedReason())
	default:
	}

	mp, ok := rt.pools[req.GameId]
	if !ok {
		return dto.DropResult{}, errs.NewWarn("game id not found")
	}

	// pool 自己會處理 done / close / rebuild / metrics
	return mp.Drop(ctx, req)
}

// Metrics 回傳所有遊戲池的觀測快照（依 GID 穩定排序）。
func (rt *DropRuntime) Metrics() []MachinePoolMetrics {
	ms := make([]MachinePoolMetrics, 0, len(rt.ids))
	for _, id := range rt.ids {
		if mp, ok := rt.pools[id]; ok {
			ms = append(ms, mp.Metrics())
		}
	}
	return ms
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *DropRuntime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *DropRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		for _, mp := range rt.pools {
			mp.Close()
		}
	})
}

// Closed reports whether the runtime has been closed.
func (rt *DropRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *DropRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
