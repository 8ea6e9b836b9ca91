package model

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pagechat-backend/internal/config"
	"pagechat-backend/internal/utils"
	"pagechat-backend/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/sirupsen/logrus"
)

// NewChatModel builds the completion client for the configured provider.
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (einoModel.BaseChatModel, error) {
	if cfg.APIKey == "" {
		logger.Warnf("llm api key is empty; completion requests will be rejected by %s", cfg.Provider)
	}

	httpClient := utils.NewHTTPClient(cfg.Timeout)
	if cfg.DebugRequest {
		httpClient.Transport = NewDebugTransport(httpClient.Transport, logger.L())
	}

	switch cfg.Provider {
	case "openai":
		logger.Infof("Using OpenAI-compatible model %s at %s", cfg.Model, cfg.BaseURL)
		return newOpenAIChatModel(cfg, httpClient), nil
	case "qwen":
		logger.Infof("Using Qwen model %s at %s", cfg.Model, cfg.BaseURL)
		return createQwenModel(ctx, cfg, httpClient)
	case "ark":
		logger.Infof("Using Ark model %s", cfg.Model)
		return createArkModel(ctx, cfg, httpClient)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}
}

func createQwenModel(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (einoModel.BaseChatModel, error) {
	chatModel, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &cfg.MaxTokens,
		Temperature: &cfg.Temperature,
		TopP:        &cfg.TopP,
		Timeout:     cfg.Timeout,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create qwen model: %w", err)
	}
	return chatModel, nil
}

func createArkModel(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (einoModel.BaseChatModel, error) {
	arkCfg := &ark.ChatModelConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &cfg.MaxTokens,
		Temperature: &cfg.Temperature,
		HTTPClient:  httpClient,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	}
	// the Groq default makes no sense for Ark; keep the SDK's own endpoint
	if cfg.BaseURL != "" && cfg.BaseURL != config.DefaultEndpoint {
		arkCfg.BaseURL = cfg.BaseURL
	}

	chatModel, err := ark.NewChatModel(ctx, arkCfg)
	if err != nil {
		return nil, fmt.Errorf("create ark model: %w", err)
	}
	return chatModel, nil
}

// DebugTransport logs outgoing completion requests with credentials removed.
type DebugTransport struct {
	base   http.RoundTripper
	logger *logrus.Logger
}

const maxLoggedBody = 2048

func NewDebugTransport(base http.RoundTripper, l *logrus.Logger) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DebugTransport{base: base, logger: l}
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Errorf("llm request failed: %v", err)
		return nil, err
	}
	t.logger.Debugf("llm response: %s", resp.Status)
	return resp, nil
}

func (t *DebugTransport) logRequest(req *http.Request) {
	fields := logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}
	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			fields["header."+name] = "[REDACTED]"
		} else {
			fields["header."+name] = strings.Join(values, ", ")
		}
	}

	if req.Body != nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.logger.Errorf("read llm request body: %v", err)
			return
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		fields["body_bytes"] = len(bodyBytes)
		body := string(bodyBytes)
		if len(body) > maxLoggedBody {
			body = body[:maxLoggedBody] + "...[truncated]"
		}
		fields["body"] = body
	}

	t.logger.WithFields(fields).Debug("llm request")
}

func isSensitiveHeader(name string) bool {
	switch strings.ToLower(name) {
	case "authorization", "x-api-key", "x-auth-token", "cookie", "api-key":
		return true
	}
	return false
}
