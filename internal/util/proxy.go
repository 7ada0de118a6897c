package util

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProxySettings holds explicit proxy overrides for outbound service clients
type ProxySettings struct {
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string // Comma-separated host suffixes that bypass the proxy
}

// NewProxyFunc creates a proxy function from explicit settings.
// Without explicit proxy URLs it falls back to HTTP_PROXY/HTTPS_PROXY/NO_PROXY.
func NewProxyFunc(p ProxySettings) func(*http.Request) (*url.URL, error) {
	if p.HTTPProxy == "" && p.HTTPSProxy == "" {
		return http.ProxyFromEnvironment
	}

	bypass := splitNoProxy(p.NoProxy)

	return func(req *http.Request) (*url.URL, error) {
		host := req.URL.Hostname()
		for _, suffix := range bypass {
			if host == suffix || strings.HasSuffix(host, "."+strings.TrimPrefix(suffix, ".")) {
				return nil, nil
			}
		}
		if req.URL.Scheme == "https" && p.HTTPSProxy != "" {
			return url.Parse(p.HTTPSProxy)
		}
		if p.HTTPProxy != "" {
			return url.Parse(p.HTTPProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// NewHTTPClient builds the client used for completion and embedding calls
func NewHTTPClient(timeout time.Duration, p ProxySettings) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: NewProxyFunc(p),
		},
	}
}

func splitNoProxy(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
