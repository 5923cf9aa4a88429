// Package openai implements receipt recognition with a vision-capable chat model.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrUnsupportedMedia is returned for files that are neither images nor PDFs
var ErrUnsupportedMedia = port.ErrUnsupportedMedia

// Config holds recognizer settings
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxPDFPages int
}

// Recognizer implements port.Recognizer
type Recognizer struct {
	client *openai.Client
	config Config
	logger *zap.Logger
}

// NewRecognizer creates a recognizer for the configured model
func NewRecognizer(cfg Config, logger *zap.Logger) *Recognizer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.MaxPDFPages <= 0 {
		cfg.MaxPDFPages = 1
	}
	return &Recognizer{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		logger: logger,
	}
}

type transcription struct {
	RawText    string  `json:"raw_text"`
	Confidence float64 `json:"confidence"`
}

// Recognize transcribes a receipt image or PDF into raw text plus a 0..100 confidence
func (r *Recognizer) Recognize(ctx context.Context, data []byte, mimeType string) (*port.RecognitionResult, error) {
	images, imageType, err := r.prepareImages(data, mimeType)
	if err != nil {
		return nil, err
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	r.logger.Info("Recognizing receipt with Vision API",
		zap.String("mime_type", mimeType),
		zap.Int("images", len(images)))

	parts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: transcriptionPrompt,
	}}
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", imageType, base64.StdEncoding.EncodeToString(img)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.config.Model,
		MaxTokens:   r.config.MaxTokens,
		Temperature: r.config.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		r.logger.Error("Vision API call failed", zap.Error(err))
		return nil, fmt.Errorf("vision API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from Vision API")
	}

	content := resp.Choices[0].Message.Content
	var result transcription
	if err := json.Unmarshal([]byte(extractJSON(content)), &result); err != nil {
		r.logger.Error("Failed to parse Vision API response",
			zap.Error(err),
			zap.Int("content_length", len(content)))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	r.logger.Info("Receipt recognized",
		zap.Int("text_length", len(result.RawText)),
		zap.Float64("confidence", result.Confidence))

	return &port.RecognitionResult{
		RawText:    result.RawText,
		Confidence: clampConfidence(result.Confidence),
	}, nil
}

// prepareImages returns the images to send and their media type. PDFs are
// rasterized to JPEG, first pages only.
func (r *Recognizer) prepareImages(data []byte, mimeType string) ([][]byte, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty file", ErrUnsupportedMedia)
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return [][]byte{data}, "image/jpeg", nil
	case "image/png", "image/webp", "image/gif":
		return [][]byte{data}, mediaType, nil
	case "application/pdf":
		pages, err := rasterizePDF(data, r.config.MaxPDFPages)
		if err != nil {
			r.logger.Error("Failed to convert PDF to images", zap.Error(err))
			return nil, "", err
		}
		r.logger.Debug("Converted PDF to images", zap.Int("pages", len(pages)))
		return pages, "image/jpeg", nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedMedia, mimeType)
	}
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	default:
		return c
	}
}

// extractJSON returns the first balanced JSON object in content, or content
// unchanged when there is none. Models occasionally wrap JSON in code fences.
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return content
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return content
}
