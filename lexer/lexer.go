package lexer

import "strings"

// Lex 将原始文档切分为文本与标记。
// body 为空（包括抓取失败的情况）时返回空切片；该函数不会失败。
// 未闭合的标记在输入结束时被丢弃。
func Lex(body string) []Token {
	if body == "" {
		return []Token{}
	}
	var (
		out    []Token
		buffer strings.Builder
		inTag  bool
	)
	// 按字节扫描：尖括号都是 ASCII，非法 UTF-8 字节原样保留
	for i := 0; i < len(body); i++ {
		switch c := body[i]; c {
		case '<':
			inTag = true
			if buffer.Len() > 0 {
				out = append(out, Text{Text: buffer.String()})
			}
			buffer.Reset()
		case '>':
			inTag = false
			out = append(out, Tag{Tag: buffer.String()})
			buffer.Reset()
		default:
			buffer.WriteByte(c)
		}
	}
	if !inTag && buffer.Len() > 0 {
		out = append(out, Text{Text: buffer.String()})
	}
	if out == nil {
		return []Token{}
	}
	return out
}

// Join 把词法单元还原为文档文本，标记两侧补回尖括号。
func Join(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch t := tok.(type) {
		case Text:
			b.WriteString(t.Text)
		case Tag:
			b.WriteByte('<')
			b.WriteString(t.Tag)
			b.WriteByte('>')
		}
	}
	return b.String()
}
