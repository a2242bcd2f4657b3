package types

import (
	"strings"
)

// Credential KIS 应用凭证与账户，会话生命周期内不可变
type Credential struct {
	AppKey        string
	AppSecret     string
	AccountPrefix string // CANO，8 位
	AccountSuffix string // ACNT_PRDT_CD，2 位
	Environment   Environment
}

// NewCredential 校验并拆分账号。accountNo 接受 "12345678-01" 或 "1234567801"。
func NewCredential(appKey, appSecret, accountNo string, env Environment) (Credential, error) {
	appKey = strings.TrimSpace(appKey)
	appSecret = strings.TrimSpace(appSecret)
	if appKey == "" {
		return Credential{}, &ConfigError{Field: "app_key", Reason: "is required"}
	}
	if appSecret == "" {
		return Credential{}, &ConfigError{Field: "app_secret", Reason: "is required"}
	}
	digits := strings.ReplaceAll(strings.TrimSpace(accountNo), "-", "")
	if digits == "" {
		return Credential{}, &ConfigError{Field: "account_no", Reason: "is required"}
	}
	if len(digits) != 10 || strings.Trim(digits, "0123456789") != "" {
		return Credential{}, &ConfigError{Field: "account_no", Reason: "must be 10 digits (8 + 2)"}
	}
	if env == "" {
		env = EnvVirtual
	}
	return Credential{
		AppKey:        appKey,
		AppSecret:     appSecret,
		AccountPrefix: digits[:8],
		AccountSuffix: digits[8:],
		Environment:   env,
	}, nil
}

// AccountKey Token Store 使用的键
func (c Credential) AccountKey() string {
	return c.AccountPrefix
}
