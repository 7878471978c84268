package extract

import (
	"fmt"
	"strings"
	"time"

	"orderintake/internal"
	"orderintake/internal/util"
)

const (
	imageSystemPrompt = "あなたは注文書の画像の内容をCSV形式に変換するアシスタントです。"
	textSystemPrompt  = "あなたはテキスト注文をCSV形式に変換するアシスタントです。"
	tokenSystemPrompt = "あなたは表記ゆれを正規化するアシスタントです。余計な説明は一切出力しません。"
)

func columnLine() string {
	return strings.Join(internal.Header(), ",")
}

// promptRules are shared between the image and text prompts. The current-date
// anchor lets the model resolve relative dates ("明日", "3日後") into absolute
// YYYYMMDD form; the capture stamp and handler it emits are discarded by the
// parser, but keeping the column count stable matters.
func promptRules(operator string, now time.Time) string {
	return fmt.Sprintf(`1行につき1つの注文を、次の%d列のカンマ区切りで出力してください:
%s
- 現在日時は %s です。「明日」は翌日、「明後日」は2日後、「N日後」はN日後として、%s は必ずYYYYMMDD形式の絶対日付に変換してください。指定がない場合は空欄にしてください。
- %s は %s、%s は %s としてください。
- 見出し行・説明文・コードブロックは出力しないでください。データ行のみを出力してください。`,
		len(internal.Header()), columnLine(),
		util.VerboseStamp(now), internal.ColRequestedDate,
		internal.ColCapturedAt, util.HourStamp(now),
		internal.ColHandler, operator)
}

func imageOrderPrompt(operator string, now time.Time) string {
	return "画像に写っている注文内容をすべて読み取ってください。\n" + promptRules(operator, now)
}

func textOrderPrompt(text, operator string, now time.Time) string {
	return fmt.Sprintf("次のテキスト注文を変換してください。\n%s\n\n対象テキスト:\n%s", promptRules(operator, now), text)
}

// tokenPrompt constrains the secondary normalization call to one bare token.
func tokenPrompt(kind, value, hint string) string {
	switch kind {
	case "unit":
		if hint != "" {
			return fmt.Sprintf("「%s」の数え方として「%s」の標準的な表記を1語だけ出力してください。", hint, value)
		}
		return fmt.Sprintf("「%s」の標準的な表記を1語だけ出力してください。", value)
	default:
		return fmt.Sprintf("「%s」の標準的な品名を1語だけ出力してください。", value)
	}
}
