package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Wire formats
// ---------------------------------------------------------------------------

type apiFormat int

const (
	formatOpenAIChat   apiFormat = iota // OpenAI chat/completions
	formatGeminiNative                  // Google Gemini generateContent
	formatAnthropic                     // Anthropic messages
)

const (
	temperature       = 0.3
	anthropicVersion  = "2023-06-01"
	anthropicMaxToken = 8192
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

// apiRequest is an encoded prompt ready to be posted, possibly several
// times.
type apiRequest struct {
	url    string
	header http.Header
	body   []byte
}

func newAPIRequest(prov Provider, system, user string) (*apiRequest, error) {
	base := strings.TrimRight(prov.BaseURL, "/")
	r := &apiRequest{header: http.Header{}}
	r.header.Set("Content-Type", "application/json")

	var payload any
	switch prov.format {
	case formatGeminiNative:
		r.url = base + "/v1beta/models/" + prov.Model + ":generateContent"
		if prov.APIKey != "" {
			r.header.Set("x-goog-api-key", prov.APIKey)
		}
		g := geminiRequest{Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}}}
		g.GenerationConfig.Temperature = temperature
		if system != "" {
			g.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
		}
		payload = g

	case formatAnthropic:
		r.url = base + "/messages"
		if prov.APIKey != "" {
			r.header.Set("x-api-key", prov.APIKey)
		}
		r.header.Set("anthropic-version", anthropicVersion)
		payload = anthropicRequest{
			Model:     prov.Model,
			MaxTokens: anthropicMaxToken,
			System:    system,
			Messages:  []chatMessage{{Role: "user", Content: user}},
		}

	default:
		r.url = base
		if !strings.HasSuffix(base, "/chat/completions") {
			r.url += "/chat/completions"
		}
		if prov.APIKey != "" {
			r.header.Set("Authorization", "Bearer "+prov.APIKey)
		}
		payload = chatRequest{
			Model: prov.Model,
			Messages: []chatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			Temperature: temperature,
		}
	}

	if _, err := url.Parse(r.url); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	r.body = body
	return r, nil
}

// apiReply covers the response shapes of every wire format. Only the
// fields of the format that answered are filled.
type apiReply struct {
	Error   json.RawMessage `json:"error"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// extractResponseText returns the model output of a successful response
// in any of the wire formats.
func extractResponseText(body []byte) (string, error) {
	var reply apiReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if len(reply.Error) > 0 && string(reply.Error) != "null" {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(reply.Error, &e) == nil && e.Message != "" {
			return "", fmt.Errorf("API error: %s", e.Message)
		}
		return "", fmt.Errorf("API error: %s", reply.Error)
	}

	switch {
	case len(reply.Choices) > 0:
		return reply.Choices[0].Message.Content, nil
	case len(reply.Candidates) > 0 && len(reply.Candidates[0].Content.Parts) > 0:
		return reply.Candidates[0].Content.Parts[0].Text, nil
	}
	for _, block := range reply.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func newHTTPClient(proxy string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment
	if u, err := url.Parse(proxy); proxy != "" && err == nil {
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// gate holds back every request of a driver until a rate limit window
// reported by the provider has passed.
type gate struct {
	mu    sync.Mutex
	until time.Time
}

func (g *gate) hold(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if end := time.Now().Add(d); end.After(g.until) {
		g.until = end
	}
}

func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	remaining := time.Until(g.until)
	g.mu.Unlock()
	if remaining <= 0 {
		return ctx.Err()
	}
	return sleep(ctx, remaining)
}

// backoff is a var so tests can shorten it.
var backoff = func(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// send posts r once and returns the status code and body.
func (a *AI) send(ctx context.Context, r *apiRequest) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(r.body))
	if err != nil {
		return 0, nil, err
	}
	req.Header = r.header.Clone()

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

// complete posts one prompt and returns the model output. Network errors
// and 5xx responses are retried with exponential backoff. A 429 closes the
// gate for the delay the provider asks for, so parallel pipelines sharing
// this driver wait too.
func (a *AI) complete(ctx context.Context, system, user string) (string, error) {
	r, err := newAPIRequest(a.prov, system, user)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	maxRetries := a.opts.effectiveMaxRetries()

	for attempt := 0; ; attempt++ {
		if err := a.gate.wait(ctx); err != nil {
			return "", err
		}
		if a.opts.Verbose {
			a.opts.log("[DEBUG] %s attempt %d: POST %s", a.prov.Name, attempt+1, r.url)
		}

		status, body, err := a.send(ctx, r)
		var delay time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			err = fmt.Errorf("API request failed: %w", err)
			delay = backoff(attempt)
		case status == http.StatusTooManyRequests:
			wait := parseRetryDelay(body)
			a.opts.log("[WARN] %s: 429 rate limited, waiting %v before retry (attempt %d/%d)", a.prov.Name, wait, attempt+1, maxRetries)
			a.gate.hold(wait)
			err = fmt.Errorf("rate limited after %d retries: %s", maxRetries, truncate(string(body), 500))
		case status >= 500:
			err = fmt.Errorf("API returned status %d: %s", status, truncate(string(body), 500))
			delay = backoff(attempt)
		case status != http.StatusOK:
			return "", fmt.Errorf("API returned status %d: %s", status, truncate(string(body), 500))
		default:
			return extractResponseText(body)
		}

		if attempt >= maxRetries {
			return "", err
		}
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return "", err
			}
		}
	}
}

// retryMargin is added to every rate limit delay. A var so tests can
// shorten it.
var retryMargin = 5 * time.Second

// parseRetryDelay reads the RetryInfo detail Google attaches to 429
// responses and adds retryMargin. Without one it waits a minute plus the
// margin.
func parseRetryDelay(body []byte) time.Duration {
	var resp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &resp) == nil {
		for _, d := range resp.Error.Details {
			if !strings.HasSuffix(d.Type, "RetryInfo") {
				continue
			}
			if delay, err := time.ParseDuration(d.RetryDelay); err == nil {
				return delay + retryMargin
			}
		}
	}
	return time.Minute + retryMargin
}

// ---------------------------------------------------------------------------
// Model output
// ---------------------------------------------------------------------------

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseTranslations pulls the JSON string array out of the model output,
// tolerating code fences and prose around it. The length is checked by
// the dispatcher.
func parseTranslations(content string, expected int) ([]string, error) {
	content = strings.TrimSpace(content)
	if m := fencedBlock.FindStringSubmatch(content); m != nil {
		content = m[1]
	}
	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start >= 0 && end > start {
		content = content[start : end+1]
	}

	var out []string
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("response is not a JSON array of %d strings: %w\nResponse: %s", expected, err, truncate(content, 300))
	}
	return out, nil
}
