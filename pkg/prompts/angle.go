// Package prompts は、アングル導出と画像生成のためにAIへ渡す指示文を構築します。
// 指示文そのものは英語で記述します（モデルの追従精度が高いため）。
package prompts

import (
	"fmt"
	"strings"
)

// アングル導出指示の共通骨格を定義するテンプレート定数
const (
	// DeriveHeader は応答形式（JSONスキーマ）を強制する指示です。
	DeriveHeader = `### TASK: DERIVE 3 NOVEL CAMERA ANGLES FROM THE ATTACHED IMAGE ###
- OUTPUT: Respond with RAW JSON only. No markdown fences, no commentary.
- SCHEMA: {"prompts": [string, string, string]} — EXACTLY 3 entries.`

	// PromptStructure は各プロンプトに要求する3段落構成の指示です。
	PromptStructure = `### PER-PROMPT STRUCTURE (MANDATORY, 3 PARAGRAPHS EACH) ###
- PARAGRAPH 1 (COMPOSITION): camera position, angle, distance and framing of the new viewpoint.
- PARAGRAPH 2 (LIGHTING): light direction, quality and mood consistent with the source image.
- PARAGRAPH 3 (SUBJECT DETAIL): the subject's identifying features that must stay unchanged.`

	// SceneFraming は通常モード（シーン全体のカメラ移動）の指示です。
	SceneFraming = `### FRAMING MODE: CINEMATIC CAMERA MOVE ###
- Treat the image as a full scene. Move the camera around the scene for each new angle.
- Keep background, environment and spatial relationships coherent from every viewpoint.
- The 3 angles must be clearly distinct from each other and from the source viewpoint.`

	// ObjectFraming はオブジェクト限定モードの指示です。
	ObjectFraming = `### FRAMING MODE: OBJECT TURNTABLE ###
- Treat the main subject as an isolated object on a neutral, unobtrusive background.
- Rotate around the object itself (e.g. three-quarter, profile, rear view) — ignore the scene.
- The 3 angles must reveal sides of the object not visible in the source image.`

	// RenderHeader は生成呼び出しの先頭に付ける共通指示です。
	RenderHeader = `### TASK: RE-RENDER THE ATTACHED IMAGE FROM A NEW CAMERA ANGLE ###
- Depict the EXACT SAME subject. Do not add, remove or restyle anything.
- Match the source image's medium, palette and level of detail.
- TARGET ANGLE SPECIFICATION:`
)

// BuildDeriveInstruction は、導出呼び出しに渡す指示文を組み立てます。
// objectOnly によってフレーミング指示だけが切り替わり、呼び出しの形は変わりません。
func BuildDeriveInstruction(objectOnly bool) string {
	framing := SceneFraming
	if objectOnly {
		framing = ObjectFraming
	}

	var sb strings.Builder
	sb.WriteString(DeriveHeader)
	sb.WriteString("\n\n")
	sb.WriteString(framing)
	sb.WriteString("\n\n")
	sb.WriteString(PromptStructure)
	return sb.String()
}

// BuildRenderPrompt は、1つのアングルプロンプトを生成呼び出し用の指示文に包みます。
func BuildRenderPrompt(anglePrompt string) string {
	return fmt.Sprintf("%s\n\n%s", RenderHeader, strings.TrimSpace(anglePrompt))
}
