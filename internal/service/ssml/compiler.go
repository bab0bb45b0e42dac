package ssml

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// SSML 文档使用的命名空间
const (
	SynthesisNamespace = "http://www.w3.org/2001/10/synthesis"
	MSTTSNamespace     = "http://www.w3.org/2001/mstts"
	EmotionNamespace   = "http://www.w3.org/2009/10/emotionml"
)

// DefaultStyle 未设置 style 时 express-as 使用的风格
const DefaultStyle = "general"

const documentLanguage = "en-US"

// Interpolate 将校验后的 TextOptions 编译为 SSML 文档。
//
// 元素嵌套固定为 speak > voice > mstts:express-as > prosody > 文本，
// 未设置的可选字段不会产生属性，style 缺省为 "general"。
// 相同输入总是得到逐字节相同的输出。
func Interpolate(opts *TextOptions) (string, error) {
	if opts == nil || opts.text == nil {
		return "", ErrMissingText
	}

	// 进入序列化前先算好全部派生字符串
	var role, styleDegree *string
	if opts.role != nil {
		role = ptr(string(*opts.role))
	}
	if opts.styleDegree != nil {
		styleDegree = ptr(strconv.FormatFloat(float64(*opts.styleDegree), 'f', -1, 32))
	}
	style := DefaultStyle
	if opts.style != nil {
		style = *opts.style
	}

	var buf bytes.Buffer
	w := &documentWriter{enc: xml.NewEncoder(&buf)}

	w.token(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="utf-8"`)})
	w.start("speak",
		attr("xmlns", SynthesisNamespace),
		attr("xmlns:mstts", MSTTSNamespace),
		attr("xmlns:emo", EmotionNamespace),
		attr("version", "1.0"),
		attr("xml:lang", documentLanguage),
	)
	w.start("voice", optionalAttrs(
		optionalAttr{"name", opts.voice},
	)...)
	w.start("mstts:express-as", append(optionalAttrs(
		optionalAttr{"role", role},
		optionalAttr{"styledegree", styleDegree},
	), attr("style", style))...)
	w.start("prosody", optionalAttrs(
		optionalAttr{"pitch", opts.pitch},
		optionalAttr{"rate", opts.rate},
	)...)
	w.token(xml.CharData(*opts.text))
	w.end("prosody")
	w.end("mstts:express-as")
	w.end("voice")
	w.end("speak")

	if err := w.close(); err != nil {
		return "", &SerializationError{Err: err}
	}
	return buf.String(), nil
}

// documentWriter 记录第一个写入错误，之后的写入全部跳过
type documentWriter struct {
	enc *xml.Encoder
	err error
}

func (w *documentWriter) token(t xml.Token) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(t)
}

func (w *documentWriter) start(name string, attrs ...xml.Attr) {
	w.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (w *documentWriter) end(name string) {
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *documentWriter) close() error {
	if w.err != nil {
		return w.err
	}
	return w.enc.Close()
}

type optionalAttr struct {
	name  string
	value *string
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func optionalAttrs(candidates ...optionalAttr) []xml.Attr {
	attrs := make([]xml.Attr, 0, len(candidates))
	for _, c := range candidates {
		if c.value != nil {
			attrs = append(attrs, attr(c.name, *c.value))
		}
	}
	return attrs
}
