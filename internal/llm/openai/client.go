package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuchen-hong/labcase-tracker/internal/entity"
	"github.com/yuchen-hong/labcase-tracker/internal/llm"
)

// ExtractCase implements llm.CaseExtractor over an OpenAI-compatible
// chat/completions endpoint. The image goes up as a base64 data URL; the fixed
// extraction prompt is the system message. Whatever comes back is
// fence-stripped, schema-checked and decoded into a candidate Info.
func (c *Client) ExtractCase(ctx context.Context, image []byte, mediaType string) (entity.Info, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	dataURL := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(image)

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"media_type", mediaType,
		"image_bytes", len(image),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.ExtractionPrompt},
			{"role": "user", "content": []map[string]any{
				{
					"type":      "image_url",
					"image_url": map[string]any{"url": dataURL},
				},
			}},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Info{}, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Info{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Info{}, raw, fmt.Errorf("no choices in openai response")
	}

	content := llm.StripFences(cc.Choices[0].Message.Content)
	rawContent := []byte(content)

	info, err := llm.DecodeCandidate(rawContent)
	if err != nil {
		c.logger.Error("llm.extract.candidate_invalid",
			"req_id", rid, "error", err, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Info{}, rawContent, fmt.Errorf("invalid extraction candidate: %w", err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"patient", info.User.Name,
		"hospital", info.Case.Hospital,
		"report_date", info.Case.ReportDate,
		"reports", len(info.Reports),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return info, rawContent, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}
