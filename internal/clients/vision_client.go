/**
 * Vision OCR Client - OpenRouter Chat Completions
 *
 * Fallback extraction path for cards the template OCR pipeline cannot
 * read. Sends the card photo to an OpenRouter-hosted vision model with a
 * fixed field-extraction prompt and parses the JSON object out of the
 * model reply.
 *
 * The reply is treated as hostile input: models wrap JSON in markdown
 * fences, prepend prose, or emit partial objects. Field recovery is
 * regex-per-field over the extracted JSON text, never a strict unmarshal.
 */

package clients

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ivisit/idscan-worker/internal/logging"
)

// visionPrompt is the exact field-extraction instruction sent with every
// card image. The model must answer with a bare JSON object.
const visionPrompt = "Analyze this Philippine ID card image and extract the following information. " +
	"Return ONLY a JSON object with these exact fields (use empty string if not found): " +
	"{ \"fullName\": \"extracted full name\", \"idNumber\": \"extracted ID number\", " +
	"\"dob\": \"date of birth in YYYY-MM-DD format\", \"address\": \"extracted address\", " +
	"\"idType\": \"type of ID (e.g. Driver's License, SSS ID, National ID, UMID)\", " +
	"\"gender\": \"Male or Female based on SEX/M/F field on ID\" } " +
	"Important: For names, use format FIRSTNAME MIDDLENAME LASTNAME. " +
	"For dates, convert to YYYY-MM-DD format. " +
	"For gender, look for SEX field or M/F indicator and return 'Male' or 'Female'. " +
	"Extract the ID/License number exactly as shown. Only return the JSON, no other text."

// VisionClient calls an OpenRouter-compatible chat completions endpoint
// with a vision-capable model.
type VisionClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *logging.Logger
}

// VisionFields is the structured result of one vision extraction call.
type VisionFields struct {
	FullName string `json:"fullName"`
	IDNumber string `json:"idNumber"`
	DOB      string `json:"dob"`
	Address  string `json:"address"`
	IDType   string `json:"idType"`
	Gender   string `json:"gender"`
}

// chatRequest mirrors the OpenRouter chat completions request shape.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse is the subset of the completions response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewVisionClient creates a vision OCR client.
func NewVisionClient(apiURL, apiKey, model string) *VisionClient {
	return &VisionClient{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // vision models can be slow
		},
		logger: logging.NewLogger("VisionClient"),
	}
}

// ExtractFields sends the card image to the vision model and returns the
// parsed field set. Missing fields come back as empty strings.
func (c *VisionClient) ExtractFields(ctx context.Context, imageData []byte, mimeType string) (*VisionFields, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	c.logger.Info("Requesting vision field extraction",
		"model", c.model,
		"imageSize", len(imageData))

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: visionPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens: 500,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", "https://ivisitust.com")
	httpReq.Header.Set("X-Title", "iVisit ID Scanner")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("vision API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("vision API returned no choices")
	}

	content := chatResp.Choices[0].Message.Content
	jsonStr := extractJSON(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object in vision reply")
	}

	fields := parseVisionFields(jsonStr)

	c.logger.Info("Vision field extraction complete",
		"idType", fields.IDType,
		"hasName", fields.FullName != "",
		"hasNumber", fields.IDNumber != "",
		"hasDOB", fields.DOB != "")

	return fields, nil
}

// extractJSON pulls the first JSON object out of a model reply, stripping
// markdown code fences when present.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = content[7:]
	} else if strings.HasPrefix(content, "```") {
		content = content[3:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

var visionFieldRes = map[string]*regexp.Regexp{
	"fullName": regexp.MustCompile(`"fullName"\s*:\s*"([^"]*)"`),
	"idNumber": regexp.MustCompile(`"idNumber"\s*:\s*"([^"]*)"`),
	"dob":      regexp.MustCompile(`"dob"\s*:\s*"([^"]*)"`),
	"address":  regexp.MustCompile(`"address"\s*:\s*"([^"]*)"`),
	"idType":   regexp.MustCompile(`"idType"\s*:\s*"([^"]*)"`),
	"gender":   regexp.MustCompile(`"gender"\s*:\s*"([^"]*)"`),
}

// parseVisionFields recovers the known fields regex-per-field, tolerating
// extra keys and partial objects.
func parseVisionFields(jsonStr string) *VisionFields {
	get := func(key string) string {
		if m := visionFieldRes[key].FindStringSubmatch(jsonStr); m != nil {
			return strings.TrimSpace(m[1])
		}
		return ""
	}
	return &VisionFields{
		FullName: get("fullName"),
		IDNumber: get("idNumber"),
		DOB:      get("dob"),
		Address:  get("address"),
		IDType:   get("idType"),
		Gender:   get("gender"),
	}
}
