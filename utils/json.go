// Package utils jsoniter 编码辅助,失败时返回零值而非错误
package utils

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// MarshalToString 编码为紧凑 JSON 字符串
func MarshalToString(v any) string {
	s, err := jsoniter.MarshalToString(v)
	if err != nil {
		return ""
	}
	return s
}

// MarshalToBytes 编码为紧凑 JSON 字节
func MarshalToBytes(v any) []byte {
	b, err := jsoniter.Marshal(v)
	if err != nil {
		return []byte{}
	}
	return b
}

// MarshalIndentToString 编码为带缩进的多行 JSON,用于 debug 日志输出
//
// 不转义 HTML,envelope 内容照原样呈现
func MarshalIndentToString(v any) string {
	var buf bytes.Buffer
	encoder := jsoniter.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "\t")
	_ = encoder.Encode(v)
	return buf.String()
}
