package audioai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrRemoteAnalysis is returned when the remote analyzer fails or replies
// with a malformed or incomplete result.
var ErrRemoteAnalysis = errors.New("audioai: remote analysis failed")

// instruction is the fixed prompt sent with every analysis request. Major
// keys map to bright descriptors, minor keys to melancholic ones, so results
// stay consistent across calls.
const instruction = `You are a music analysis engine. You receive one audio file encoded as a base64 data URI. Detect its tempo in beats per minute and its musical key. Derive a short mood description from the key and energy: major keys get bright, energetic descriptors; minor keys get melancholic, soft descriptors. Reply with a single JSON object with exactly these fields: "bpm" (integer), "key" (string, e.g. "A Minor"), "mood" (string), "explanation" (one or two sentences on how you reached the result). No other text.`

// Analysis is the result of one remote tempo/key/mood analysis.
type Analysis struct {
	BPM         int    `json:"bpm"`
	Key         string `json:"key"`
	Mood        string `json:"mood"`
	Explanation string `json:"explanation"`
}

type Config struct {
	Debug  bool
	Token  string
	Model  string
	Host   string
	Client *http.Client
}

// Client talks to an OpenAI compatible chat completion API. One client is
// created at startup and reused for every analysis call.
type Client struct {
	client *openai.Client
	debug  bool
	model  string
}

func New(cfg *Config) *Client {
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 2 * time.Minute,
		}
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	aiCfg := openai.DefaultConfig(cfg.Token)
	aiCfg.HTTPClient = httpClient
	if cfg.Host != "" {
		aiCfg.BaseURL = cfg.Host
	}
	return &Client{
		client: openai.NewClientWithConfig(aiCfg),
		debug:  cfg.Debug,
		model:  model,
	}
}

// Analyze submits an encoded audio payload and returns the tempo, key and
// mood the remote model detected. The call runs to completion or failure;
// callers that no longer care about the result must drop it themselves.
func (c *Client) Analyze(ctx context.Context, payload, mediaType string) (*Analysis, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: instruction,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Media type: %s\nAudio file:\n%s", mediaType, payload),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteAnalysis, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrRemoteAnalysis)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty response body", ErrRemoteAnalysis)
	}
	if c.debug {
		log.Printf("audioai: response %s\n", content)
	}
	var analysis Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("%w: couldn't parse response (%s): %v", ErrRemoteAnalysis, content, err)
	}
	if analysis.BPM <= 0 || analysis.Key == "" || analysis.Mood == "" || analysis.Explanation == "" {
		return nil, fmt.Errorf("%w: incomplete response (%s)", ErrRemoteAnalysis, content)
	}
	return &analysis, nil
}
