package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-angle-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は CLI フラグの値を受ける共有のオプション構造体なのだ。
var opts config.RunOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.InputFile, "input-file", "f", "", "元画像のパス（ローカル or gs://、'-'で標準入力なのだ）。")
	rootCmd.PersistentFlags().StringVarP(&opts.InputURL, "input-url", "u", "", "元画像を取得するURLなのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "ZIPを保存するディレクトリ（ローカル or gs://...）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().BoolVar(&opts.ObjectOnly, "object-only", false, "被写体をオブジェクトとして扱い、シーンを無視して回転させるのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultModel, "アングル導出に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "画像生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().DurationVar(&opts.RenderInterval, "interval", config.DefaultRenderInterval, "連続する生成呼び出しの最小間隔なのだ。")
	rootCmd.PersistentFlags().IntVar(&opts.Attempts, "attempts", config.DefaultAttempts, "生成1回あたりの試行回数なのだ（1でリトライなし）。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"go-angle-kit",
		addAppFlags,
		preRunAppE,
		generateCmd,
		promptsCmd,
	)
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
