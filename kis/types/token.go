package types

import (
	"strings"
	"time"
)

// TokenSafetyMargin 到期前这段时间内的 token 视为已过期
const TokenSafetyMargin = 10 * time.Minute

// TokenExpiryLayout 服务端 access_token_token_expired 的格式（KST）
const TokenExpiryLayout = "2006-01-02 15:04:05"

// KST 韩国标准时间，固定偏移避免依赖 tzdata
var KST = time.FixedZone("KST", 9*60*60)

// Token 访问令牌
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// UsableAt token 在 now 时刻是否可以继续使用（考虑安全边际）
func (t Token) UsableAt(now time.Time) bool {
	if t.Value == "" || t.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(t.ExpiresAt.Add(-TokenSafetyMargin))
}

// ParseTokenExpiry 解析服务端到期时间字符串
func ParseTokenExpiry(text string) (time.Time, error) {
	return time.ParseInLocation(TokenExpiryLayout, strings.TrimSpace(text), KST)
}

// FormatTokenExpiry 与 ParseTokenExpiry 对应
func FormatTokenExpiry(t time.Time) string {
	return t.In(KST).Format(TokenExpiryLayout)
}
