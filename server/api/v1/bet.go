package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/zintix-labs/pegdrop"
	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/server/httperr"
	"github.com/zintix-labs/pegdrop/spec"
)

// Bet 押注檔位校驗端點。
//
// 機台池不黏著會話，實際押注額由每次 /v1/drop 請求自帶；
// 此端點讓客戶端在下注前先校驗檔位並取得該遊戲的合法檔位表。
func Bet(pd *pegdrop.Pegdrop) http.HandlerFunc {
	// 內部結構 不影響外部 也不被外部使用
	type BetRequestBody struct {
		GID spec.GID `json:"gid"`
		Bet int      `json:"bet"`
	}
	type BetResponse struct {
		GID      spec.GID `json:"gid"`
		Bet      int      `json:"bet"`
		Valid    bool     `json:"valid"`
		BetUnits []int    `json:"bet_units"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := new(BetRequestBody)
		if r.Method == http.MethodGet {
			if s := r.URL.Query().Get("gid"); s != "" {
				u, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					httperr.Errs(w, errs.NewWarn("gid must be non-negative integer"))
					return
				}
				req.GID = spec.GID(u)
			} else {
				httperr.Errs(w, errs.NewWarn("gid is required"))
				return
			}
			if s := r.URL.Query().Get("bet"); s != "" {
				v, err := strconv.Atoi(s)
				if err != nil {
					httperr.Errs(w, errs.NewWarn("bet must be integer"))
					return
				}
				req.Bet = v
			} else {
				httperr.Errs(w, errs.NewWarn("bet is required"))
				return
			}
		}
		if r.Method == http.MethodPost {
			if err := json.NewDecoder(r.Body).Decode(req); err != nil {
				httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
				return
			}
		}
		sums, err := pd.Summary()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		for _, s := range sums {
			if s.GID != req.GID {
				continue
			}
			resp := BetResponse{
				GID:      s.GID,
				Bet:      req.Bet,
				BetUnits: s.BetUnits,
			}
			for _, u := range s.BetUnits {
				if u == req.Bet {
					resp.Valid = true
					break
				}
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		httperr.Errs(w, errs.NewWarn("gid not found"))
	}
}
