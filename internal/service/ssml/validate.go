package ssml

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// 样式强度的闭区间
const (
	MinStyleDegree float32 = 0.01
	MaxStyleDegree float32 = 2.0
)

const styleDegreeRangeMessage = "Style degree out of range [0.01, 2]"

const unsignedNumber = `(?:[0-9]+(?:\.[0-9]+)?|\.[0-9]+)`

var (
	hertzPattern    = regexp.MustCompile(`^[+-]?` + unsignedNumber + `Hz$`)
	percentPattern  = regexp.MustCompile(`^[+-]?` + unsignedNumber + `%$`)
	semitonePattern = regexp.MustCompile(`^[+-]` + unsignedNumber + `st$`)
	factorPattern   = regexp.MustCompile(`^` + unsignedNumber + `f$`)
	numberPattern   = regexp.MustCompile(`^[+-]?` + unsignedNumber + `$`)
)

var pitchPresets = map[string]struct{}{
	"default": {},
	"x-low":   {},
	"low":     {},
	"medium":  {},
	"high":    {},
	"x-high":  {},
}

var ratePresets = map[string]struct{}{
	"default": {},
	"x-slow":  {},
	"slow":    {},
	"medium":  {},
	"fast":    {},
	"x-fast":  {},
}

// ParsePitch 将音高参数转换为 prosody pitch 属性的规范形式。
//
// 接受的形式：预设值（x-low、low、medium、high、x-high、default），
// 带可选符号的赫兹值（600Hz、-2Hz），百分比（+10%），
// 必须带符号的半音（+2st、-1.5st），以及裸数字（0.5 转换为 +50.00%）。
func ParsePitch(input string) (string, error) {
	value := strings.TrimSpace(input)

	if _, ok := pitchPresets[value]; ok {
		return value, nil
	}
	if hertzPattern.MatchString(value) || percentPattern.MatchString(value) || semitonePattern.MatchString(value) {
		return value, nil
	}
	if numberPattern.MatchString(value) {
		return relativePercent("pitch", input, value)
	}

	return "", newValidationError("pitch", input,
		"expected one of x-low, low, medium, high, x-high, default, <n>Hz, [+-]<n>%%, [+-]<n>st or a relative number")
}

// ParseRate 将语速参数转换为 prosody rate 属性的规范形式。
//
// 接受的形式：预设值（x-slow、slow、medium、fast、x-fast、default），
// 百分比（+10%），倍率（1.5f 转换为 1.5），以及裸数字（0.3 转换为 +30.00%）。
func ParseRate(input string) (string, error) {
	value := strings.TrimSpace(input)

	if _, ok := ratePresets[value]; ok {
		return value, nil
	}
	if percentPattern.MatchString(value) {
		return value, nil
	}
	if factorPattern.MatchString(value) {
		factor, err := strconv.ParseFloat(strings.TrimSuffix(value, "f"), 32)
		if err != nil {
			return "", newValidationError("rate", input, "rate factor out of range")
		}
		if factor <= 0 {
			return "", newValidationError("rate", input, "rate factor must be a positive number")
		}
		return strconv.FormatFloat(factor, 'f', -1, 32), nil
	}
	if numberPattern.MatchString(value) {
		return relativePercent("rate", input, value)
	}

	return "", newValidationError("rate", input,
		"expected one of x-slow, slow, medium, fast, x-fast, default, [+-]<n>%%, <n>f or a relative number")
}

// ValidateStyleDegree 判断样式强度是否位于 [0.01, 2] 闭区间
func ValidateStyleDegree(value float32) bool {
	return value >= MinStyleDegree && value <= MaxStyleDegree
}

func checkStyleDegree(value float32) error {
	if !ValidateStyleDegree(value) {
		return &ValidationError{Field: "style_degree", Input: value, Message: styleDegreeRangeMessage}
	}
	return nil
}

// relativePercent 把相对数值转换为带符号的百分比，例如 -0.2 -> -20.00%。
// 符号在舍入到两位小数之后确定，因此 -0.00001 得到 +0.00%。
func relativePercent(field, input, value string) (string, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return "", newValidationError(field, input, "relative value out of range")
	}

	pct := v * 100
	if math.Abs(pct) > math.MaxFloat32 {
		return "", newValidationError(field, input, "relative value out of range")
	}

	magnitude := strconv.FormatFloat(math.Abs(pct), 'f', 2, 64)
	sign := "+"
	if pct < 0 && magnitude != "0.00" {
		sign = "-"
	}
	return sign + magnitude + "%", nil
}
