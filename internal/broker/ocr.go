package broker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const ocrTimeout = 30 * time.Second

// ErrEmptyRecognition indicates the OCR service returned no text.
var ErrEmptyRecognition = errors.New("ocr returned empty text")

// HTTPRecognizer resolves captcha images through an external OCR
// service: POST the raw image bytes, receive the recognized text. The
// service response may be plain text or a JSON object with a "text"
// field.
type HTTPRecognizer struct {
	httpClient *http.Client
	endpoint   string
}

// NewHTTPRecognizer creates a recognizer for the given OCR endpoint.
func NewHTTPRecognizer(endpoint string) *HTTPRecognizer {
	return &HTTPRecognizer{
		httpClient: &http.Client{Timeout: ocrTimeout},
		endpoint:   endpoint,
	}
}

// Recognize submits image bytes to the OCR service and returns the
// recognized text.
func (r *HTTPRecognizer) Recognize(image []byte) (string, error) {
	req, err := http.NewRequest("POST", r.endpoint, bytes.NewReader(image))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ocr service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading ocr response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr service returned status %d, body: %s", resp.StatusCode, string(body))
	}

	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") {
		var parsed struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", fmt.Errorf("decoding ocr response: %w", err)
		}
		text = strings.TrimSpace(parsed.Text)
	}

	if text == "" {
		return "", ErrEmptyRecognition
	}
	return text, nil
}
