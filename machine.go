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
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"math"
	"math/big"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/pegdrop/dto"
	"github.com/zintix-labs/pegdrop/errs"
	"github.com/zintix-labs/pegdrop/sdk/board"
	"github.com/zintix-labs/pegdrop/sdk/buf"
	"github.com/zintix-labs/pegdrop/sdk/calc"
	"github.com/zintix-labs/pegdrop/sdk/core"
	"github.com/zintix-labs/pegdrop/sdk/gen"
	"github.com/zintix-labs/pegdrop/sdk/mods"
	"github.com/zintix-labs/pegdrop/sdk/sampler"
	"github.com/zintix-labs/pegdrop/spec"
)

// Gacha 是調優後的種子抽樣結構（對應 optimizer.Gacha）。
// 為了避免循環導入，這裡定義一個簡化版本。
type Gacha struct {
	Picker  *sampler.AliasTable `json:"picker"`   // 抽樣表
	SeedLen int                 `json:"seed_len"` // 抽到第 n 個種子時取 bank[n*SeedLen:(n+1)*SeedLen]
}

// Pick 從 Gacha 中抽取一個種子的索引範圍。
func (g *Gacha) Pick(c *core.Core) (start int, end int) {
	s := g.Picker.Pick(c)
	start = s * g.SeedLen
	end = start + g.SeedLen
	return
}

// OptimalRuntime 存放調優運行時資料，每個押注檔位對應一組 Gacha 與 SeedBank。
type OptimalRuntime struct {
	Gachas []*Gacha // len(Gachas) == len(BetUnits)
	Bank   [][]byte // 每個 []byte 是完整的 SeedBank
}

// Machine 封裝一台「可對外提供 Drop」的遊戲機台。
//
// 對外：提供 Drop 入口（HTTP/模擬器通常只操作 Machine）。
// 對內：持有 RNG（Core）、釘板物理、盤面生成/算分與觸發判定。
//
// 並發語意：
//   - Machine 不是 lock-free 結構；它內含可重用的 result buffer（熱路徑），
//     同一台 Machine 不應被多 goroutine 同時 Drop。
//   - 若要併發模擬，由更高層建立多台 Machine 分散到不同 worker。
//
// Buffer 語意：
//   - DropResult 會被重用（避免 GC），每次 Drop 會覆寫內容。
//   - 若需要在 Drop 後保留結果，請在離開臨界區前轉成 DTO。
type Machine struct {
	gameName string
	gameId   spec.GID
	gs       *spec.GameSetting
	core     *core.Core // RNG 核心（PRNG + Snapshot/Restore 合約）
	board    *board.Board
	gen      *gen.ScreenGenerator
	calc     *calc.ScreenCalculator
	det      *mods.Detector

	state      buf.GameState
	BetUnits   []int           // 押注檔位（由遊戲設定衍生）
	DropResult *buf.DropResult // 可重用的結果 buffer（每次 Drop 會覆寫）

	balls []*board.Ball // 單回合球列暫存

	mu       sync.Mutex
	initseed int64           // 出生 seed（追溯用；完整重現請用 Snapshot/Restore）
	isSim    bool
	optimal  *OptimalRuntime // 調優運行時資料（nil 表示未啟用）
}

// newMachine 以「隨機 seed」建立 Machine。
//
// 這裡使用 crypto/rand 產生 seed 是為了：
//   - 在對外服務情境避免可預測 RNG
//   - 同時保留可追溯性（seed 會被記錄在 Machine.initseed）
func newMachine(gs *spec.GameSetting, cf core.PRNGFactory, isSim bool, optimalFS fs.FS) (*Machine, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newMachineWithSeed(gs, cf, seed.Int64(), isSim, optimalFS)
}

// newMachineWithSeed 以指定 seed 建立 Machine。
//
// 這是最常用的「可重現」入口：同一份 GameSetting + 同一個 seed，
// 應能得到一致的亂數序列與落球/盤面結果。
//
// 若設定檔啟用調優（optimal.use_optimal=true）且注入了 optimalFS，
// 會在這裡載入 Gacha 與 SeedBank。
func newMachineWithSeed(gs *spec.GameSetting, cf core.PRNGFactory, seed int64, isSim bool, optimalFS fs.FS) (*Machine, error) {
	c := core.New(cf.New(seed))

	bd, err := board.NewBoard(&gs.Board, gs.Pockets.Count)
	if err != nil {
		return nil, err
	}

	m := &Machine{
		gameName: gs.GameName,
		gameId:   gs.GameID,
		gs:       gs,
		core:     c,
		board:    bd,
		gen:      gen.NewScreenGenerator(c, &gs.Symbols),
		calc:     calc.NewScreenCalculator(&gs.Symbols, &gs.Lines),
		det:      mods.NewDetector(&gs.Triggers, gs.Symbols.SymbolCount),
		BetUnits: gs.BetUnits,
		balls:    make([]*board.Ball, 0, 4),
		initseed: seed,
		isSim:    isSim,
	}
	m.DropResult = buf.NewDropResult(gs)
	m.state = buf.GameState{
		Balance:    gs.InitBalance,
		CurrentBet: gs.BetUnits[0],
		Phase:      spec.PhaseIdle,
	}

	if gs.Optimal.UseOptimal && optimalFS != nil {
		optimal, err := loadOptimalRuntime(gs, optimalFS)
		if err != nil {
			return nil, err
		}
		m.optimal = optimal
	}
	return m, nil
}

// Drop 為主要公開入口，會驗證請求、執行一個完整落球回合並回傳結果。
//
// 回合內依序經歷 Dropping（落球解算）與 Spinning（旋轉會期），
// 全程同步執行，返回時機台必回到 Idle。
func (m *Machine) Drop(r *dto.DropRequest) (dto.DropResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 1. 校驗請求合法性
	if err := m.valid(r); err != nil {
		return dto.DropResult{}, err
	}
	req, err := r.Parse()
	if err != nil {
		return dto.DropResult{}, err
	}
	bet := req.Bet
	if bet == 0 {
		bet = m.state.CurrentBet
	}

	// 2. 未指定回放快照且啟用調優時，從 gacha 抽一段種子作為本回合起點
	if len(req.StartCoreSnap) == 0 && m.optimal != nil {
		snap, err := m.pickOptimalSnap(bet)
		if err != nil {
			return dto.DropResult{}, err
		}
		req.StartCoreSnap = snap
	}

	// 3. get start snapshot
	startsnap, err := m.SnapshotCore()
	if err != nil {
		return dto.DropResult{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	rem := startsnap
	restored := len(req.StartCoreSnap) != 0
	if restored {
		startsnap = req.StartCoreSnap
		if err := m.RestoreCore(req.StartCoreSnap); err != nil {
			return dto.DropResult{}, errs.NewWarn("restore core err " + err.Error())
		}
	}

	// 4. 執行回合
	dr, err := m.playRound(bet, req.Trace)
	if err != nil {
		// 回合沒開成也要退回原本的流水，外部快照不可殘留成機台狀態
		if restored {
			if e := m.RestoreCore(rem); e != nil {
				return dto.DropResult{}, errs.NewFatal("fall back err " + e.Error())
			}
		}
		return dto.DropResult{}, err
	}

	// 5. get after snapshot
	aftersnap, err := m.SnapshotCore()
	if err != nil {
		if e := m.RestoreCore(rem); e != nil {
			return dto.DropResult{}, errs.NewFatal("fall back err " + e.Error())
		}
		return dto.DropResult{}, errs.NewWarn("after snapshot error " + err.Error())
	}

	// 6. restore if needed（回放/調優模式不推進機台的 RNG 流水）
	if restored {
		if err := m.RestoreCore(rem); err != nil {
			return dto.DropResult{}, errs.NewFatal("restore core back err " + err.Error())
		}
	}

	// 7. dto
	return dto.NewDropResultDTO(dr, m.snapshotState(), startsnap, aftersnap)
}

// pickOptimalSnap 依押注檔位從 gacha 抽出對應的種子快照。
//
// 抽樣本身會推進機台的 RNG 流水；抽出的快照交由 Drop 以回放語意執行，
// 回合結束後流水只前進 Pick 消耗的部分。
func (m *Machine) pickOptimalSnap(bet int) ([]byte, error) {
	mode := -1
	for i, u := range m.BetUnits {
		if u == bet {
			mode = i
			break
		}
	}
	if mode < 0 || mode >= len(m.optimal.Gachas) {
		return nil, errs.NewWarn("error bet value")
	}

	gacha := m.optimal.Gachas[mode]
	bank := m.optimal.Bank[mode]
	start, end := gacha.Pick(m.core)
	if start < 0 || end > len(bank) || start >= end {
		return nil, errs.Warnf("invalid gacha pick range: start=%d, end=%d, bank_len=%d", start, end, len(bank))
	}
	return bank[start:end], nil
}

// SetBet 變更當前押注檔位；只允許在 Idle 階段呼叫。
func (m *Machine) SetBet(bet int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Phase != spec.PhaseIdle {
		return errs.NewWarn("bet can only be changed in idle phase")
	}
	if !m.gs.ValidBetUnit(bet) {
		return errs.NewWarn("bet is not a configured bet unit")
	}
	m.state.CurrentBet = bet
	return nil
}

// State 回傳機台狀態的快照（拷貝）。
func (m *Machine) State() buf.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotState()
}

// DropInternal 直接取得內部 DropResult；常用於模擬器或測試。
//
// 請勿在正式環境使用
//
// 此行為跳過請求校驗，並在餘額不足時自動補滿初始餘額，
// 讓長程模擬不會因破產而中斷（RTP 統計只看押注/贏分總和）。
func (m *Machine) DropInternal(betMode int) *buf.DropResult {
	bet := m.BetUnits[betMode]
	if m.state.Balance < bet {
		m.state.Balance = m.gs.InitBalance
		if m.state.Balance < bet {
			m.state.Balance = bet
		}
	}
	dr, err := m.playRound(bet, false)
	if err != nil {
		// playRound 只會因設定錯誤失敗；模擬情境直接讓它浮上來
		panic(err)
	}
	return dr
}

func (m *Machine) valid(req *dto.DropRequest) error {
	if m.gameId != req.GameId {
		return errs.NewWarn("game id is not matched")
	}
	if req.GameName != "" && m.gameName != req.GameName {
		return errs.NewWarn("game name is not matched")
	}
	if req.Bet != 0 && !m.gs.ValidBetUnit(req.Bet) {
		return errs.NewWarn("error bet value")
	}
	return nil
}

// SnapshotCore 取得Core狀態暫存 當前僅提供取得Core狀態
//
// 之後要實作斷線重連時候提供checkpoint加入必要恢復資訊時實作
// SnapShot() <- 保留語意
func (m *Machine) SnapshotCore() ([]byte, error) {
	return m.core.Snapshot()
}

// RestoreCore 恢復Core狀態暫存 當前僅提供恢復Core狀態
//
// 之後要實作斷線重連時候提供checkpoint加入必要恢復資訊時實作
// Restore() <- 保留語意
func (m *Machine) RestoreCore(src []byte) error {
	return m.core.Restore(src)
}

// loadGacha 從 optimalFS 載入 Gacha 檔（.json.zst，由 optimizer.Tuner.Save 產出）。
func loadGacha(optimalFS fs.FS, path string) (*Gacha, error) {
	if optimalFS == nil {
		return nil, errs.NewWarn("optimalFS is nil")
	}
	if path == "" {
		return nil, errs.NewWarn("gacha path is empty")
	}

	compressed, err := fs.ReadFile(optimalFS, path)
	if err != nil {
		return nil, errs.Wrap(err, "read gacha file failed")
	}

	zr, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errs.Wrap(err, "create zstd reader failed")
	}
	defer zr.Close()

	jsonBytes, err := io.ReadAll(zr)
	if err != nil {
		return nil, errs.Wrap(err, "read decompressed data failed")
	}

	var gacha Gacha
	if err := json.Unmarshal(jsonBytes, &gacha); err != nil {
		return nil, errs.Wrap(err, "unmarshal gacha json failed")
	}

	if gacha.Picker == nil {
		return nil, errs.Warnf("gacha: Picker is required")
	}
	if gacha.SeedLen <= 0 {
		return nil, errs.Warnf("gacha: SeedLen must be > 0")
	}

	return &gacha, nil
}

// loadSeedBank 從 optimalFS 載入 SeedBank 檔（.bin，純 []byte）。
func loadSeedBank(optimalFS fs.FS, path string) ([]byte, error) {
	if optimalFS == nil {
		return nil, errs.NewWarn("optimalFS is nil")
	}
	if path == "" {
		return nil, errs.NewWarn("seed_bank path is empty")
	}

	bank, err := fs.ReadFile(optimalFS, path)
	if err != nil {
		return nil, errs.Wrap(err, "read seed_bank file failed")
	}

	return bank, nil
}

// loadOptimalRuntime 從 optimalFS 載入調優運行時資料。
func loadOptimalRuntime(gs *spec.GameSetting, optimalFS fs.FS) (*OptimalRuntime, error) {
	opt := gs.Optimal

	// 校驗：gachas 與 seed_bank 數量必須等於 BetUnits 數量
	if len(opt.Gachas) != len(gs.BetUnits) {
		return nil, errs.NewFatal(fmt.Sprintf("gachas count (%d) must match bet_units count (%d)", len(opt.Gachas), len(gs.BetUnits)))
	}
	if len(opt.SeedBank) != len(gs.BetUnits) {
		return nil, errs.NewFatal(fmt.Sprintf("seed_bank count (%d) must match bet_units count (%d)", len(opt.SeedBank), len(gs.BetUnits)))
	}

	optimal := &OptimalRuntime{
		Gachas: make([]*Gacha, len(gs.BetUnits)),
		Bank:   make([][]byte, len(gs.BetUnits)),
	}

	for i := range gs.BetUnits {
		gacha, err := loadGacha(optimalFS, opt.Gachas[i])
		if err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("load gacha[%d] (%s) failed", i, opt.Gachas[i]))
		}
		optimal.Gachas[i] = gacha

		bank, err := loadSeedBank(optimalFS, opt.SeedBank[i])
		if err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("load seed_bank[%d] (%s) failed", i, opt.SeedBank[i]))
		}
		optimal.Bank[i] = bank
	}

	return optimal, nil
}

// ============================================================
// ** 以下內部方法 **
// ============================================================

// playRound 執行一個完整落球回合（熱路徑，不加鎖，由呼叫端保證互斥）。
//
// 流程：
//  1. Idle 校驗、扣注（餘額不足不動任何狀態）
//  2. Dropping：消耗加球檔位與牆效果，生成並解算所有球
//  3. 依落袋順序逐顆結算（spins 覆寫、bonus 黏滯）
//  4. Spinning：逐次生成盤面、算分、觸發判定，贏分累計
//  5. 結算回餘額，清除 bonus，回到 Idle
func (m *Machine) playRound(bet int, trace bool) (*buf.DropResult, error) {
	st := &m.state

	if st.Phase != spec.PhaseIdle {
		return nil, errs.NewWarn("machine is not in idle phase")
	}
	if !m.gs.ValidBetUnit(bet) {
		return nil, errs.NewWarn("error bet value")
	}
	if st.Balance < bet {
		return nil, errs.NewWarn("insufficient balance")
	}

	dr := m.DropResult
	dr.Reset()
	dr.Bet = bet
	dr.BalanceBefore = st.Balance

	// ── Dropping ──
	st.Phase = spec.PhaseDropping
	st.Balance -= bet
	st.CurrentBet = bet

	ballCount := 1 + st.Mods.ExtraBallTier
	st.Mods.ExtraBallTier = 0
	leftWall, rightWall := st.Mods.LeftWall, st.Mods.RightWall
	st.Mods.LeftWall = false
	st.Mods.RightWall = false

	m.spawnBalls(ballCount, trace)
	order, err := m.board.RunAll(m.balls, m.core, leftWall, rightWall)
	if err != nil {
		// 物理解算失敗代表設定不可信，機台狀態作廢
		st.Phase = spec.PhaseIdle
		return nil, err
	}

	// 依落袋順序逐顆結算：spins 覆寫、bonus 黏滯到會期結束
	for _, i := range order {
		b := m.balls[i]
		p := m.gs.Pockets.Pockets[b.Pocket]
		st.SpinsRemaining = p.Spins
		if p.Bonus {
			st.InBonus = true
		}
		dr.AppendBall(buf.BallResult{
			Pocket: b.Pocket,
			Spins:  p.Spins,
			Bonus:  p.Bonus,
			Steps:  b.Steps,
			SpawnX: b.SpawnX,
			Trace:  b.Trace,
		})
	}
	dr.SpinsAwarded = st.SpinsRemaining
	dr.Bonus = st.InBonus

	// ── Spinning ──
	if st.SpinsRemaining > 0 {
		st.Phase = spec.PhaseSpinning
	}
	for st.SpinsRemaining > 0 {
		sr := dr.NextSpin()
		screen := m.gen.GenScreen()
		copy(sr.Screen[:], screen)

		m.calc.CalcScreen(screen, sr)
		sr.Bonus = st.InBonus
		win := sr.LineMult * bet
		if st.InBonus {
			win *= m.gs.BonusMult
		}
		sr.Win = win

		fired := m.det.Detect(screen)
		sr.Triggers = append(sr.Triggers, fired...)
		mods.Apply(&st.Mods, fired)

		dr.SettleSpin(sr)
		st.SpinsRemaining--
	}

	// ── 結算 ──
	st.Balance += dr.TotalWin
	st.InBonus = false
	st.Phase = spec.PhaseIdle

	dr.BalanceAfter = st.Balance
	dr.ModsAfter = st.Mods
	return dr, nil
}

// spawnBalls 生成本回合的球列。
//
// 出生位移以加權不放回抽樣決定；球數多於位移數時循環重用抽出的位移。
func (m *Machine) spawnBalls(n int, trace bool) {
	bs := &m.gs.Board
	picked := sampler.WeightedSample(m.core, bs.SpawnWeights, n)
	if len(picked) == 0 {
		picked = []int{0}
	}

	m.balls = m.balls[:0]
	for i := 0; i < n; i++ {
		off := bs.SpawnOffsets[picked[i%len(picked)]]
		m.balls = append(m.balls, m.board.Spawn(off, trace))
	}
}

func (m *Machine) snapshotState() buf.GameState {
	s := m.state
	s.PhaseName = s.Phase.String()
	return s
}
