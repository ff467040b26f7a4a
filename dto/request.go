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

package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/pegdrop/corefmt"
	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/spec"
)

type DropRequest struct {
	UID      string   `json:"uid"`             // 唯一識別碼
	GameName string   `json:"game"`            // 要玩的遊戲（可選，帶了就校驗）
	GameId   spec.GID `json:"gid"`             // 遊戲機台編號
	Bet      int      `json:"bet"`             // 投注額（分）；0 表示沿用機台當前檔位
	Trace    bool     `json:"trace,omitempty"` // 是否回傳球軌跡

	StartState *StartState `json:"start_state,omitempty"` // 可選：回放/續玩的引擎狀態（nil=新局）
}

// DecodeDropRequest 會把 HTTP 請求解碼成 DropRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（uid/game/gid/bet/trace）。
//     注意：GET 建議僅用於「新局」或簡單測試；回放狀態（start_state）建議使用 POST。
//   - POST：從 JSON body 反序列化（支援 start_state）。
//
// 注意：
//   - 這裡只負責「解碼（decode）」與基本型別轉換，不做任何遊戲合法性校驗；
//     合法性（例如 bet 是否為合法檔位、階段是否允許）由上層 Machine/Runtime 決定。
//   - 為避免過大 body 影響服務，POST 會對 body 做大小限制（預設 1MiB）。
//   - POST 會開啟 DisallowUnknownFields()，對未知欄位採用嚴格拒絕，以避免靜默丟資料。
func DecodeDropRequest(r *http.Request) (*DropRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(DropRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.UID = q.Get("uid")
		req.GameName = q.Get("game")

		if s := q.Get("gid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid gid: %v", err))
			}
			req.GameId = spec.GID(u)
		}

		if s := q.Get("bet"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid bet: %v", err))
			}
			req.Bet = v
		}

		if s := q.Get("trace"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid trace: %v", err))
			}
			req.Trace = v
		}

		return req, nil

	case http.MethodPost:
		// 防止 body 過大（預設 1MiB）
		const maxBody = 1 << 20
		body := io.LimitReader(r.Body, maxBody)
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return req, nil

	default:
		return nil, fmt.Errorf("method not allowed")
	}
}

// StartState 是由業務端帶入的「引擎可恢復狀態」（可選）。
//
// 設計目標：
//   - 新局：start_state 缺省即可；引擎會自行推進 RNG 並在回應中回傳 Start/After。
//   - 回放（Replay）：業務端帶入當初記錄的 start_b64u，即可重現該回合結果。
//   - 續玩（Resume/Continue）：業務端把上一段回應的 after_b64u 當作下一段的
//     start_b64u 送入，以延續 RNG 流水。
//
// 重要約束：
//   - Request 只允許提供 Start（start_b64u）；After（after_b64u）只會由引擎在 Response 回傳。
type StartState struct {
	// StartCoreSnapB64U：RNG Core 的「起始快照」Base64URL（URL-safe base64）字串。
	//   - 缺省：視為新局（引擎自行起始 RNG）。
	//   - 有值：視為回放/續玩（引擎從該快照 restore RNG）。
	StartCoreSnapB64U string `json:"start_b64u,omitempty"`
}

func (ss *StartState) HasPayload() bool {
	if ss == nil {
		return false
	}
	return ss.StartCoreSnapB64U != ""
}

// Parse 把外部請求轉換成引擎內部請求（含 base64url 快照解碼）。
func (dr *DropRequest) Parse() (*buf.DropRequest, error) {
	req := &buf.DropRequest{
		UID:      dr.UID,
		GameName: dr.GameName,
		GameId:   dr.GameId,
		Bet:      dr.Bet,
		Trace:    dr.Trace,
	}

	if dr.StartState.HasPayload() {
		snap, err := corefmt.DecodeBase64URL(dr.StartState.StartCoreSnapB64U)
		if err != nil {
			return nil, errs.NewWarn("core snap decode failed " + err.Error())
		}
		req.StartCoreSnap = snap
	}
	return req, nil
}
