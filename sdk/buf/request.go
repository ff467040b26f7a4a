package buf

import "github.com/zintix-labs/pegdrop/spec"

// DropRequest 一次落球回合的內部請求（已解碼、已轉換）。
//
// 外部傳輸格式（HTTP/JSON）的解碼與 base64 轉換在 dto 層完成，
// 這裡只保留引擎需要的欄位。
type DropRequest struct {
	UID      string   // 唯一識別碼
	GameName string   // 遊戲名稱（可選，帶了就校驗）
	GameId   spec.GID // 遊戲機台編號
	Bet      int      // 投注額（分）；0 表示沿用機台當前檔位
	Trace    bool     // 是否回傳球軌跡

	// StartCoreSnap 非空時表示回放/續玩：引擎以此快照還原 RNG 再執行，
	// 結束後還原回原本的流水位置。
	StartCoreSnap []byte
}
