// Package workflow は、1回の実行の進行状態を保持する観測可能な状態機械です。
// オーケストレーターが状態を遷移させ、プレゼンテーション層（CLIのログ出力等）は
// Observer を通じて遷移を観測するだけで、制御には関与しません。
package workflow

import (
	"sync"

	"github.com/shouni/go-angle-kit/pkg/domain"
)

// Observer は状態遷移のたびにスナップショットを受け取るコールバックです。
type Observer func(state domain.WorkflowState)

// Tracker は WorkflowState への唯一の書き込み窓口です。
// すべての遷移はロック下で行われ、観測者にはコピーだけが渡ります。
type Tracker struct {
	mu       sync.Mutex
	state    domain.WorkflowState
	observer Observer
}

// NewTracker は初期状態（Idle）の Tracker を生成します。observer は nil を許容します。
func NewTracker(observer Observer) *Tracker {
	return &Tracker{observer: observer}
}

// Begin は実行の開始を記録します。元画像を保持し、ロード中に遷移します。
func (t *Tracker) Begin(img domain.SourceImage, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = domain.WorkflowState{
		Phase:    domain.PhaseAnalyzing,
		Original: &img,
		Loading:  true,
		Status:   status,
	}
	t.notifyLocked()
}

// SetStatus は進行メッセージを更新します。エラーメッセージとは排他です。
func (t *Tracker) SetStatus(phase domain.Phase, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Phase = phase
	t.state.Status = status
	t.state.ErrorMessage = ""
	t.notifyLocked()
}

// Append は生成済み画像を順序どおりに追記します。
// 実行の完了を待たずに部分結果が観測できるよう、成功のたびに呼ばれます。
func (t *Tracker) Append(img domain.GeneratedImage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Generated = append(t.state.Generated, img)
	t.notifyLocked()
}

// Complete は実行の正常完了を記録します。
func (t *Tracker) Complete(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Phase = domain.PhaseComplete
	t.state.Status = status
	t.state.ErrorMessage = ""
	t.state.Loading = false
	t.notifyLocked()
}

// Fail は失敗を記録します。進行メッセージはエラーメッセージに置き換わり、
// すでに追記された部分結果はロールバックされません。
func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Phase = domain.PhaseFailed
	t.state.Status = ""
	t.state.ErrorMessage = message
	t.state.Loading = false
	t.notifyLocked()
}

// Reset はどの状態からでも初期の空状態に戻します。
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = domain.WorkflowState{}
	t.notifyLocked()
}

// Snapshot は現在の状態の安全なコピーを返します。
func (t *Tracker) Snapshot() domain.WorkflowState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Snapshot()
}

// Finished は実行が完了済み（アーカイブ出力可能）かどうかを返します。
func (t *Tracker) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Finished()
}

func (t *Tracker) notifyLocked() {
	if t.observer != nil {
		t.observer(t.state.Snapshot())
	}
}
