package asr

import (
	"strings"
	"time"

	"autosub/internal/config"
)

// ProviderKind identifies a recognition backend.
type ProviderKind string

const (
	ProviderMock    ProviderKind = "mock"
	ProviderTencent ProviderKind = "tencent"
	ProviderAlibaba ProviderKind = "alibaba"
)

// TencentCredentials configure the synchronous flash recognition API.
type TencentCredentials struct {
	AppID      string
	SecretID   string
	SecretKey  string
	EngineType string
}

// AlibabaCredentials configure the asynchronous file transcription API.
type AlibabaCredentials struct {
	AccessKeyID     string
	AccessKeySecret string
	AppKey          string
	Region          string
	PollInterval    time.Duration
	PollMaxAttempts int
}

// Credentials is the closed provider variant: exactly one backend is
// selected per pipeline invocation, derived from configuration. There is no
// process-wide mutable provider state.
type Credentials struct {
	Kind    ProviderKind
	Tencent TencentCredentials
	Alibaba AlibabaCredentials
}

// CredentialsFromConfig derives the provider selection and its credentials
// from configuration. Pure: no validation or I/O happens here; missing
// fields surface as configuration errors when the client is constructed.
func CredentialsFromConfig(cfg *config.Config) Credentials {
	creds := Credentials{Kind: ProviderKind(cfg.Provider.Name)}
	creds.Tencent = TencentCredentials{
		AppID:      strings.TrimSpace(cfg.Tencent.AppID),
		SecretID:   strings.TrimSpace(cfg.Tencent.SecretID),
		SecretKey:  strings.TrimSpace(cfg.Tencent.SecretKey),
		EngineType: strings.TrimSpace(cfg.Tencent.EngineType),
	}
	creds.Alibaba = AlibabaCredentials{
		AccessKeyID:     strings.TrimSpace(cfg.Alibaba.AccessKeyID),
		AccessKeySecret: strings.TrimSpace(cfg.Alibaba.AccessKeySecret),
		AppKey:          strings.TrimSpace(cfg.Alibaba.AppKey),
		Region:          strings.TrimSpace(cfg.Alibaba.Region),
		PollInterval:    time.Duration(cfg.Alibaba.PollIntervalSeconds) * time.Second,
		PollMaxAttempts: cfg.Alibaba.PollMaxAttempts,
	}
	return creds
}
