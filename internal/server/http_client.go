package server

import (
	"net"
	"net/http"
	"time"

	"github.com/dynsite/dynsite/internal/config"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewGeneratorClient 返回访问文本生成服务的 http.Client，超时取自 request_timeout。
func NewGeneratorClient(cfg *config.Config) *http.Client {
	timeout := 60 * time.Second
	if cfg != nil && cfg.Generator.RequestTimeout.DurationValue() > 0 {
		timeout = cfg.Generator.RequestTimeout.DurationValue()
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: defaultTransport.Clone(),
	}
}
