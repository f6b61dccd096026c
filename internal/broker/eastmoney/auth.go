package eastmoney

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	tradeBaseURL = "https://jywg.18.cn"

	loginPath       = "/Login/Authentication?validatekey="
	captchaPath     = "/Login/YZM?randNum="
	validateKeyPath = "/Trade/Buy"

	loginReferer = tradeBaseURL + "/Login?el=1&clear=&returl=%2fTrade%2fBuy"

	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/114.0.0.0 Safari/537.36"

	// DefaultDuration is the session lifetime requested at login, in minutes.
	DefaultDuration = 30

	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// validateKeyPattern matches the anti-forgery token embedded in the
// authenticated trade page.
var validateKeyPattern = regexp.MustCompile(`id="em_validatekey" type="hidden" value="(.*?)"`)

// setBaseHeaders applies the vendor's fixed header set. The Host header
// is derived from the request URL by net/http.
func setBaseHeaders(req *http.Request) {
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Origin", tradeBaseURL)
}

// AuthClient drives the authentication session lifecycle: captcha,
// credential submission, retry on transport faults, and validate key
// acquisition.
type AuthClient struct {
	httpClient *http.Client
	solver     *CaptchaSolver
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	session    Session
}

// NewAuthClient creates an auth client using the given HTTP client and
// captcha solver.
func NewAuthClient(httpClient *http.Client, solver *CaptchaSolver) *AuthClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &AuthClient{
		httpClient: httpClient,
		solver:     solver,
		baseURL:    tradeBaseURL,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
}

// SetRetryPolicy overrides the transport-fault retry policy. attempts
// is the total number of submission attempts.
func (c *AuthClient) SetRetryPolicy(attempts int, delay time.Duration) {
	if attempts > 0 {
		c.maxRetries = attempts
	}
	c.retryDelay = delay
}

// ValidateKey returns the current session validate key, empty when the
// session is not authenticated.
func (c *AuthClient) ValidateKey() string {
	return c.session.ValidateKey
}

// Login authenticates with the vendor. duration is the requested
// session lifetime in minutes.
//
// Transport faults (connection errors, timeouts, non-200 statuses) are
// retried with a fresh captcha challenge before each attempt, since
// challenges are nonce-bound and single-use. A vendor credential
// rejection (Status != 0) is terminal immediately and carries the
// vendor's message. A token-scrape failure after an accepted login is a
// ValidateKeyError, a different fault class from login failure.
func (c *AuthClient) Login(username, password string, duration int) error {
	if duration <= 0 {
		duration = DefaultDuration
	}

	username = strings.TrimSpace(username)
	encrypted, err := EncryptPassword(strings.TrimSpace(password))
	if err != nil {
		return fmt.Errorf("encrypting credentials: %w", err)
	}

	log.Printf("[Eastmoney] Logging in user %s", username)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			time.Sleep(c.retryDelay)
		}

		// Challenges are single-use: regenerate the nonce/captcha pair
		// for every attempt.
		challenge, err := c.solver.FetchAndSolve()
		if err != nil {
			return &LoginError{Message: "captcha challenge failed", Cause: err}
		}
		c.session.Nonce = challenge.Nonce
		c.session.CaptchaText = challenge.Text

		result, err := c.submit(username, encrypted, challenge, duration)
		if err != nil {
			log.Printf("[Eastmoney] Login attempt %d/%d failed: %v", attempt, c.maxRetries, err)
			lastErr = err
			continue
		}

		if result.Status != 0 {
			msg := result.Message
			if msg == "" {
				msg = "unknown error"
			}
			log.Printf("[Eastmoney] Login rejected: %s", msg)
			return &LoginError{Message: msg, Rejected: true}
		}

		if err := c.fetchValidateKey(); err != nil {
			return err
		}
		log.Printf("[Eastmoney] Login successful")
		return nil
	}

	return &LoginError{
		Message: fmt.Sprintf("transport failed after %d attempts", c.maxRetries),
		Cause:   lastErr,
	}
}

// submit performs a single credential POST. Any transport fault,
// non-200 status, or undecodable body is returned as a retryable error.
func (c *AuthClient) submit(username, encryptedPassword string, challenge *Challenge, duration int) (*apiResponse, error) {
	form := url.Values{}
	form.Set("userId", username)
	form.Set("password", encryptedPassword)
	form.Set("randNumber", formatNonce(challenge.Nonce))
	form.Set("identifyCode", challenge.Text)
	form.Set("duration", fmt.Sprintf("%d", duration))
	form.Set("authCode", "")
	form.Set("type", "Z")
	form.Set("secInfo", "")

	req, err := http.NewRequest("POST", c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	setBaseHeaders(req)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", loginReferer)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("login returned status %d, body: %s", resp.StatusCode, string(body))
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	return &result, nil
}

// fetchValidateKey scrapes the session validate key from the
// authenticated trade page.
func (c *AuthClient) fetchValidateKey() error {
	req, err := http.NewRequest("GET", c.baseURL+validateKeyPath, nil)
	if err != nil {
		return &ValidateKeyError{Message: "building request", Cause: err}
	}
	setBaseHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ValidateKeyError{Message: "fetching trade page", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ValidateKeyError{Message: fmt.Sprintf("trade page returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ValidateKeyError{Message: "reading trade page", Cause: err}
	}

	match := validateKeyPattern.FindSubmatch(body)
	if match == nil {
		return &ValidateKeyError{Message: "unable to extract validate key from trade page"}
	}

	c.session.ValidateKey = strings.TrimSpace(string(match[1]))
	return nil
}

// Logout clears the session. Idempotent, no network call.
func (c *AuthClient) Logout() {
	c.session.Clear()
	log.Printf("[Eastmoney] Logged out")
}
