package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Fields 交易所原始字段（有序），取值可能是数字、字符串或嵌套结构。
// 读取接口在 key 缺失或类型不符时返回 false，不会报错。
type Fields struct {
	keys []string
	vals map[string]any
}

// NewFields 按 k1, v1, k2, v2 ... 的顺序构造
func NewFields(kv ...any) *Fields {
	f := &Fields{vals: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		f.Set(k, kv[i+1])
	}
	return f
}

// Set 写入字段，已存在的 key 保持原有顺序
func (f *Fields) Set(key string, v any) {
	if f.vals == nil {
		f.vals = make(map[string]any)
	}
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = v
}

func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys 按插入顺序返回
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func (f *Fields) Get(key string) (any, bool) {
	if f == nil || f.vals == nil {
		return nil, false
	}
	v, ok := f.vals[key]
	return v, ok
}

// Float 读取数值字段，数字字符串会被解析；NaN/Inf 视为缺失
func (f *Fields) Float(key string) (float64, bool) {
	v, ok := f.Get(key)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Text 读取字符串字段，数字会被格式化
func (f *Fields) Text(key string) (string, bool) {
	v, ok := f.Get(key)
	if !ok || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// UnmarshalJSON 保留对象 key 的原始顺序
func (f *Fields) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("fields: expected json object")
	}

	f.keys = f.keys[:0]
	f.vals = make(map[string]any)
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return errors.New("fields: expected string key")
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		f.Set(key, v)
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON 按插入顺序输出
func (f *Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToFloat 尽力把任意值转换为 float64
func ToFloat(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = p
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = p
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ParseFloat 解析交易所返回的数字字符串，空串或非法值返回 nil
func ParseFloat(s string) *float64 {
	n, ok := ToFloat(s)
	if !ok {
		return nil
	}
	return &n
}
