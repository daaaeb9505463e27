package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-angle-kit/internal/builder"
	"github.com/shouni/go-angle-kit/internal/config"
	"github.com/shouni/go-angle-kit/pkg/domain"
	"github.com/shouni/go-angle-kit/pkg/runner"

	"github.com/spf13/cobra"
)

// promptsCmd は、アングルプロンプトの導出（JSON出力）のみを実行するのだ。
var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "アングルプロンプト3つの導出だけを実行するのだ。",
	Long: `元画像を解析して、新しいカメラアングルの記述をちょうど3つ導出し、
JSON形式で標準出力に書き出すのだ。画像生成は行わないのだよ。`,
	RunE: promptsCommand,
}

func promptsCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.InputFile == "" && opts.InputURL == "" && !isStdin() {
		return fmt.Errorf("ソース（--input-file または --input-url）を指定してほしいのだ")
	}
	if opts.InputFile == "" && opts.InputURL == "" {
		opts.InputFile = "-"
	}

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.Options = opts

	slog.Info("アングル導出モードを起動するのだ！", "text_model", cfg.GeminiModel, "object_only", opts.ObjectOnly)

	angleRunner, err := builder.BuildAngleShotRunner(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("コンポーネントの構築に失敗したのだ: %w", err)
	}

	derived, err := angleRunner.DerivePrompts(ctx, runner.RunArgs{
		InputFile:  opts.InputFile,
		InputURL:   opts.InputURL,
		ObjectOnly: opts.ObjectOnly,
	})
	if err != nil {
		return fmt.Errorf("アングル導出中にエラーが発生したのだ: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(domain.AnglePromptSet{Prompts: derived}); err != nil {
		return fmt.Errorf("JSONの書き出しに失敗したのだ: %w", err)
	}

	slog.Info("アングルプロンプトの導出が完了したのだ！", "count", len(derived))
	return nil
}
