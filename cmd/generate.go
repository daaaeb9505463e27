package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-angle-kit/internal/builder"
	"github.com/shouni/go-angle-kit/internal/config"
	"github.com/shouni/go-angle-kit/pkg/domain"
	"github.com/shouni/go-angle-kit/pkg/runner"

	"github.com/spf13/cobra"
)

// generateCmd は、1枚の元画像から3枚のアングル違い画像とZIPアーカイブを生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "元画像から3つの新しいカメラアングルの画像を生成するのだ。",
	Long: `元画像を解析して3つの新しいカメラアングルの記述を導出し、
それぞれのアングルから見た画像を順番に生成するのだ。
完成したら元画像と生成画像3枚をまとめたZIPを書き出すのだよ。`,
	RunE: generateCommand,
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.InputFile == "" && opts.InputURL == "" && !isStdin() {
		return fmt.Errorf("ソース（--input-file または --input-url）を指定してほしいのだ")
	}
	if opts.InputFile == "" && opts.InputURL == "" {
		opts.InputFile = "-"
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	slog.Info("アングル生成パイプラインを起動するのだ！",
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel,
		"object_only", opts.ObjectOnly,
		"output_dir", opts.OutputDir)

	// 3. 状態遷移の観測者としてログ出力を渡しつつ、全コンポーネントを構築するのだ
	angleRunner, err := builder.BuildAngleShotRunner(ctx, cfg, logObserver)
	if err != nil {
		return fmt.Errorf("コンポーネントの構築に失敗したのだ: %w", err)
	}

	result, err := angleRunner.Run(ctx, runner.RunArgs{
		InputFile:  opts.InputFile,
		InputURL:   opts.InputURL,
		OutputDir:  opts.OutputDir,
		ObjectOnly: opts.ObjectOnly,
	})
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！",
		"archive", result.Archive.ArchivePath,
		"entries", result.Archive.EntryNames)
	return nil
}

// logObserver は状態遷移をそのままログに流すプレゼンテーション層なのだ。
func logObserver(state domain.WorkflowState) {
	switch {
	case state.ErrorMessage != "":
		slog.Error("実行状態", "phase", state.Phase.String(), "error", state.ErrorMessage, "views", len(state.Generated))
	case state.Status != "":
		slog.Info("実行状態", "phase", state.Phase.String(), "status", state.Status, "views", len(state.Generated))
	}
}
