package eastmoney

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const captchaTimeout = 60 * time.Second

// Recognizer resolves a captcha image to its text. Implementations are
// injected so tests can use deterministic doubles.
type Recognizer interface {
	Recognize(image []byte) (string, error)
}

// Challenge is a captcha nonce/solution pair. The nonce identifies the
// challenge server-side, so the pair must be submitted together and a
// challenge is single-use.
type Challenge struct {
	Nonce float64
	Text  string
}

// CaptchaSolver fetches captcha images from the vendor and resolves
// them through a Recognizer.
type CaptchaSolver struct {
	httpClient *http.Client
	recognizer Recognizer
	baseURL    string
}

// NewCaptchaSolver creates a solver using the given HTTP client and
// recognizer capability.
func NewCaptchaSolver(httpClient *http.Client, recognizer Recognizer) (*CaptchaSolver, error) {
	if recognizer == nil {
		return nil, ErrMissingRecognizer
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &CaptchaSolver{
		httpClient: httpClient,
		recognizer: recognizer,
		baseURL:    tradeBaseURL,
	}, nil
}

// FetchAndSolve generates a fresh nonce, fetches the challenge image
// tied to it, and recognizes its text. Returns a CaptchaError if the
// fetch fails, the status is non-200, or recognition yields no text.
func (s *CaptchaSolver) FetchAndSolve() (*Challenge, error) {
	nonce, err := randomNonce()
	if err != nil {
		return nil, &CaptchaError{Message: "generating nonce", Cause: err}
	}

	url := s.baseURL + captchaPath + formatNonce(nonce)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, &CaptchaError{Message: "building captcha request", Cause: err}
	}
	setBaseHeaders(req)

	client := *s.httpClient
	client.Timeout = captchaTimeout

	resp, err := client.Do(req)
	if err != nil {
		return nil, &CaptchaError{Message: "fetching captcha image", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &CaptchaError{Message: fmt.Sprintf("captcha fetch returned status %d", resp.StatusCode)}
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CaptchaError{Message: "reading captcha image", Cause: err}
	}

	text, err := s.recognizer.Recognize(image)
	if err != nil {
		return nil, &CaptchaError{Message: "recognizing captcha", Cause: err}
	}
	if text == "" {
		return nil, &CaptchaError{Message: "captcha recognition returned empty text"}
	}

	return &Challenge{Nonce: nonce, Text: text}, nil
}

// randomNonce returns a cryptographically sourced float in [0, 1).
func randomNonce() (float64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	// 53 bits of entropy, the full precision of a float64 mantissa.
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53), nil
}

// formatNonce renders the nonce the way the vendor's web client does:
// a plain decimal fraction, shortest round-trip form.
func formatNonce(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
