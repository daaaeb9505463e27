package domain

// Phase は1回の実行が進む4段階（解析1回 + 生成3回）のどこに
// いるかを示す状態機械のフェーズです。
type Phase int

const (
	// PhaseIdle は実行前または Reset 直後の初期状態です。
	PhaseIdle Phase = iota
	// PhaseAnalyzing はアングルプロンプトの導出中（ステージ 1/4）です。
	PhaseAnalyzing
	// PhaseRendering は i 枚目の画像生成中（ステージ 2/4〜4/4）です。
	PhaseRendering
	// PhaseComplete は3枚すべての生成が完了した状態です。
	PhaseComplete
	// PhaseFailed はいずれかのステージで失敗した状態です。
	PhaseFailed
)

// String は Phase のログ出力用表現を返します。
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseRendering:
		return "rendering"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WorkflowState は1回の実行を通じてUI（観測者）を駆動する唯一のレコードです。
// 実行ごとに1つだけ存在し、Reset で初期状態に戻ります。
//
// 不変条件:
//   - len(Generated) は常に 3 以下で、1回の実行中は単調に増加する
//   - ErrorMessage と進行中の Status は定常状態で同時に設定されない
type WorkflowState struct {
	Phase        Phase
	Original     *SourceImage
	Generated    []GeneratedImage
	Loading      bool
	Status       string
	ErrorMessage string
}

// Finished は実行が「完了」（アーカイブ出力可能）かどうかを返します。
// ロード中でなく、エラーがなく、ちょうど3枚の画像が揃っている場合のみ真です。
func (s WorkflowState) Finished() bool {
	return !s.Loading && s.ErrorMessage == "" && len(s.Generated) == AnglePromptCount
}

// clone は観測者へ渡すためのスナップショットを作ります。
// スライスをコピーして、観測者側からの変更が内部状態に波及しないようにします。
func (s WorkflowState) clone() WorkflowState {
	out := s
	if s.Generated != nil {
		out.Generated = make([]GeneratedImage, len(s.Generated))
		copy(out.Generated, s.Generated)
	}
	return out
}

// Snapshot は外部へ公開して安全な状態コピーを返します。
func (s WorkflowState) Snapshot() WorkflowState {
	return s.clone()
}
