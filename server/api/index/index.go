// Package index 提供服務主頁：列出可用的 API endpoints，方便人工確認服務存活。
package index

import "net/http"

const indexHTML = `<!doctype html>
<html lang="zh-Hant">
<head>
  <meta charset="utf-8" />
  <title>Pegdrop</title>
  <style>
    body { font-family: -apple-system,BlinkMacSystemFont,"Segoe UI",sans-serif; background:#0f172a; color:#e2e8f0; margin:0; }
    .wrap { max-width: 640px; margin: 48px auto; padding: 16px 24px; background:#111827; border:1px solid #1f2937; border-radius:12px; }
    h1 { font-size: 22px; }
    code { background:#0b1224; border:1px solid #1f2738; border-radius:6px; padding:2px 6px; }
    li { margin: 8px 0; }
    a { color:#38bdf8; }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>Pegdrop</h1>
    <ul>
      <li><code>GET/POST /v1/drop</code> 落球一回合</li>
      <li><code>GET /v1/state</code> 機台池狀態</li>
      <li><code>GET/POST /v1/bet</code> 押注檔位校驗</li>
      <li><code>GET/POST /v1/sim</code> 模擬統計</li>
      <li><code>GET/POST /v1/simplayer</code> 玩家模擬</li>
      <li><code>POST /v1/simbycfg</code> 自帶設定模擬</li>
      <li><code>POST /v1/stat</code> 數列重建統計</li>
      <li><a href="/dev">Dev Panel</a></li>
    </ul>
  </div>
</body>
</html>`

func IndexHandlerFn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}
