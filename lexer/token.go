package lexer

import "strconv"

// 该文件定义词法单元：尖括号之外的文本与尖括号之内的标记。

// Kind 区分两类词法单元。
type Kind int

const (
	KindText Kind = iota
	KindTag
)

// Token 是 Lex 的输出单元，只有 Text 与 Tag 两种实现。
type Token interface {
	Kind() Kind
	Value() string
	String() string
}

// Text 保存两个标记之间的原始字符，构造时保证非空。
type Text struct {
	Text string `json:"text"`
}

func (t Text) Kind() Kind { return KindText }
func (t Text) Value() string { return t.Text }
func (t Text) String() string { return strconv.Quote(t.Text) }

// Tag 保存 `<` 与 `>` 之间的内容，不拆分属性。
type Tag struct {
	Tag string `json:"tag"`
}

func (t Tag) Kind() Kind { return KindTag }
func (t Tag) Value() string { return t.Tag }
func (t Tag) String() string { return "<" + t.Tag + ">" }
