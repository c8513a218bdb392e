package utils

import (
	"net/http"
	"net/url"
	"time"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
	SetHeader(key, value string)
}

type KisameHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewKisameHTTPClient(cfg HTTPClientConfig) *KisameHTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true, // raw bytes only, ranges must not be re-encoded
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err == nil {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &KisameHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
	}
}

func (k *KisameHTTPClient) SetHeader(key, value string) {
	k.config.Headers[key] = value
}

func (k *KisameHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if k.config.UserAgent != "" {
		req.Header.Set("User-Agent", k.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent)
	}
	for key, value := range k.config.Headers {
		req.Header.Set(key, value)
	}
	return k.client.Do(req)
}
