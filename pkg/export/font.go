package export

import (
	"os"
	"strings"
)

// DefaultFontCandidates 常见系统上自带的中文 TrueType 字体，fpdf 不支持 .ttc 与 CFF 字体
var DefaultFontCandidates = []string{
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/usr/share/fonts/truetype/noto/NotoSansSC-Regular.ttf",
	"/usr/share/fonts/google-droid-sans-fonts/DroidSansFallbackFull.ttf",
	"/usr/share/fonts/wqy-microhei/wqy-microhei.ttf",
	"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	"C:/Windows/Fonts/simhei.ttf",
	"C:/Windows/Fonts/simkai.ttf",
}

// ResolveFont 返回可用的 PDF 字体路径
// 配置了路径时原样返回，否则依次尝试候选字体，找不到时 ok 为 false
func ResolveFont(configured string, candidates ...string) (path string, ok bool) {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured, true
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
