package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義
const (
	DefaultModel          = "gemini-3-flash-preview"
	DefaultImageModel     = "gemini-3-pro-image-preview"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRenderInterval = 1 * time.Second // 連続生成の間に挟む意図的なスロットル
	DefaultAttempts       = 1               // 1 = リトライなし
	DefaultOutputDir      = "output"
)

// Config はアプリケーション全体の環境設定（APIキーやモデル設定）を保持する構造体です。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string // アングル導出用モデル
	GeminiImageModel string // 画像生成用モデル

	Options RunOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返します。
// GEMINI_API_KEY の存在チェック自体はコマンドの PreRun で行われます。
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
	}
}

// RunOptions は CLI フラグから渡される実行時のパラメータです。
type RunOptions struct {
	// ソース入力関連
	InputFile string // --input-file（'-'で標準入力）
	InputURL  string // --input-url

	// 出力設定
	OutputDir string // --output-dir（ローカル or gs://...。ZIPはこの直下に書かれる）

	// 生成挙動設定
	ObjectOnly bool   // --object-only: オブジェクト限定フレーミング
	AIModel    string // --model: アングル導出用のGeminiモデル
	ImageModel string // --image-model: 画像生成用のGeminiモデル
	Attempts   int    // --attempts: 生成1回あたりの試行回数（1=リトライなし）

	// 実行制御
	RenderInterval time.Duration // --interval: 連続生成呼び出しの最小間隔
	HTTPTimeout    time.Duration // --http-timeout
}
