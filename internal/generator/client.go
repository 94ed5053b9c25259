package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dynsite/dynsite/internal/config"
)

// ErrMissingAPIKey 表示未能从环境变量解析到生成服务的密钥。
var ErrMissingAPIKey = errors.New("generation api key missing")

// Request 是一次生成调用的输入：系统指令 + 用户指令。
type Request struct {
	System string
	User   string
	// JSON 要求服务以单个 JSON 对象作答。
	JSON bool
}

// Completer 抽象外部文本生成服务，单次往返，不重试、不流式。
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete makes CompleterFunc satisfy Completer.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ChatClient 通过 openai-go SDK 调用 OpenAI 兼容的 chat completions 接口。
type ChatClient struct {
	client openai.Client
	model  string
	apiKey string
}

// NewChatClient 基于生成配置构建客户端；httpClient 为空时使用带超时的默认客户端。
func NewChatClient(httpClient *http.Client, cfg config.GeneratorConfig) *ChatClient {
	if httpClient == nil {
		timeout := cfg.RequestTimeout.DurationValue()
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	apiKey := cfg.APIKey()
	return &ChatClient{
		client: openai.NewClient(
			option.WithBaseURL(strings.TrimRight(cfg.APIBaseURL, "/")+"/"),
			option.WithAPIKey(apiKey),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(0),
		),
		model:  cfg.Model,
		apiKey: apiKey,
	}
}

// Model 返回当前使用的模型标识。
func (c *ChatClient) Model() string {
	return c.model
}

func (c *ChatClient) Complete(ctx context.Context, in Request) (string, error) {
	// SDK 会回退读取 OPENAI_API_KEY，这里只认配置指定的环境变量。
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(in.System),
			openai.UserMessage(in.User),
		},
	}
	if in.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion response missing choices")
	}
	return completion.Choices[0].Message.Content, nil
}
