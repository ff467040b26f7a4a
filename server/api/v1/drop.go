package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/zintix-labs/pegdrop"
	"github.com/zintix-labs/pegdrop/dto"
	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/server/httperr"
	"github.com/zintix-labs/pegdrop/server/svrcfg"
	"github.com/zintix-labs/pegdrop/spec"
)

func (c *DropHandler) Drop(w http.ResponseWriter, q *http.Request) {
	// 請求方法、結構體校驗
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeDropRequest(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// 請求解析完成，設置超時 context
	ctx := q.Context()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 開始 Drop
	result, err := c.rt.Drop(ctx, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// State 回傳各遊戲機台池的觀測快照；帶 gid 時只回單一池。
func (c *DropHandler) State(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ms := c.rt.Metrics()
	if s := q.URL.Query().Get("gid"); s != "" {
		u, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			httperr.Errs(w, errs.NewWarn("gid must be non-negative integer"))
			return
		}
		for _, m := range ms {
			if spec.GID(u) == m.GameID {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(m)
				return
			}
		}
		httperr.Errs(w, errs.NewWarn("gid not found"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ms)
}

// ============================================================
// ** DropHandler **
// ============================================================

type DropHandler struct {
	rt *pegdrop.DropRuntime
}

func NewDropHandler(sCfg *svrcfg.SvrCfg) (*DropHandler, error) {
	rt, err := sCfg.Pegdrop.BuildRuntime(sCfg.PoolSize)
	if err != nil {
		return nil, errs.Wrap(err, "build drop handler error")
	}
	return &DropHandler{rt: rt}, nil
}
