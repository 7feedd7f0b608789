package layout

import (
	"encoding/json"
	"os"

	"github.com/ByLCY/pagelet/lexer"
)

// debugDump 同时记录词法单元与排版结果，方便对照标记与样式切换。
type debugDump struct {
	Tokens []string `json:"tokens"`
	Result *Result  `json:"result"`
}

// WriteDebugJSON 将词法单元与排版结果输出为 JSON。
func WriteDebugJSON(path string, tokens []lexer.Token, res *Result) error {
	if res == nil {
		return nil
	}
	dump := debugDump{Tokens: make([]string, 0, len(tokens)), Result: res}
	for _, tok := range tokens {
		dump.Tokens = append(dump.Tokens, tok.String())
	}
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
