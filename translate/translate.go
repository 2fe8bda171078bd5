// Package translate implements translation drivers: AI providers reached
// over HTTP (OpenAI-compatible chat, Google Gemini, Anthropic) and a copy
// driver that returns the source text unchanged.
//
// Every driver translates a whole batch in one request and returns exactly
// as many strings as it was given, or an error.
package translate

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/minios-linux/locdiff/dispatch"
	"github.com/minios-linux/locdiff/langmeta"
)

// ---------------------------------------------------------------------------
// Driver IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle       = "google"
	ProviderGroq         = "groq"
	ProviderOpenAI       = "openai"
	ProviderAnthropic    = "anthropic"
	ProviderCustomOpenAI = "custom-openai"
	ProviderOllama       = "ollama"
	// DriverCopy fills missing keys with the source text.
	DriverCopy = "copy"
)

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for an AI translation service.
type Provider struct {
	// ID is the provider identifier (google, groq, ollama, etc.).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration

	format apiFormat
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google AI (Gemini)",
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.0-flash",
			Timeout: 120 * time.Second,
			format:  formatGeminiNative,
		},
		ProviderGroq: {
			ID:      ProviderGroq,
			Name:    "Groq",
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.3-70b-versatile",
			Timeout: 60 * time.Second,
		},
		ProviderOpenAI: {
			ID:      ProviderOpenAI,
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 120 * time.Second,
		},
		ProviderAnthropic: {
			ID:      ProviderAnthropic,
			Name:    "Anthropic",
			BaseURL: "https://api.anthropic.com/v1",
			Model:   "claude-3-5-haiku-latest",
			Timeout: 120 * time.Second,
			format:  formatAnthropic,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Timeout: 60 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Model:   "llama3.1",
			Timeout: 120 * time.Second,
		},
	}
}

// Names returns every driver name accepted by New, sorted.
func Names() []string {
	names := []string{DriverCopy}
	for id := range DefaultProviders() {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options configures a driver built by New. Zero fields fall back to the
// provider defaults.
type Options struct {
	// APIKey authenticates against the provider.
	APIKey string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	// Model overrides the provider model.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout (overrides provider timeout if set).
	Timeout time.Duration
	// MaxRetries is the maximum number of retries on 429/5xx. Default: 3.
	MaxRetries int
	// SystemPrompt overrides DefaultSystemPrompt.
	SystemPrompt string
	// OnLog emits log messages (retries, rate limits).
	OnLog func(format string, args ...any)
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	} else if o.Verbose {
		log.Printf(format, args...)
	}
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

// New builds the driver registered under name.
func New(name string, opts Options) (dispatch.Driver, error) {
	if name == DriverCopy {
		return Copy{}, nil
	}

	prov, ok := DefaultProviders()[name]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	if opts.APIKey != "" {
		prov.APIKey = opts.APIKey
	}
	if opts.BaseURL != "" {
		prov.BaseURL = opts.BaseURL
	}
	if opts.Model != "" {
		prov.Model = opts.Model
	}
	if opts.Proxy != "" {
		prov.Proxy = opts.Proxy
	}
	if opts.Timeout > 0 {
		prov.Timeout = opts.Timeout
	}

	if prov.BaseURL == "" {
		return nil, fmt.Errorf("driver %s requires a base URL", name)
	}
	if prov.Model == "" {
		return nil, fmt.Errorf("driver %s requires a model", name)
	}
	if prov.APIKey == "" && name != ProviderOllama && name != ProviderCustomOpenAI {
		return nil, fmt.Errorf("driver %s requires an API key", name)
	}

	return NewAI(prov, opts), nil
}

// ---------------------------------------------------------------------------
// Copy driver
// ---------------------------------------------------------------------------

// Copy is a driver that returns its input unchanged. It fills new keys
// with the source text as a placeholder for human translators.
type Copy struct{}

// Translate returns a copy of texts.
func (Copy) Translate(ctx context.Context, texts []string, _, _ string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, len(texts))
	copy(out, texts)
	return out, nil
}

// ---------------------------------------------------------------------------
// AI driver
// ---------------------------------------------------------------------------

// AI translates through an HTTP AI provider.
type AI struct {
	prov   Provider
	opts   Options
	client *http.Client
	// gate is shared by all calls through this driver so a 429 seen by one
	// pipeline pauses the others.
	gate *gate
}

// NewAI returns a driver for prov.
func NewAI(prov Provider, opts Options) *AI {
	return &AI{
		prov:   prov,
		opts:   opts,
		client: newHTTPClient(prov.Proxy, prov.Timeout),
		gate:   &gate{},
	}
}

// Name returns the provider display name.
func (a *AI) Name() string {
	return a.prov.Name
}

// Translate sends texts to the provider in one request.
func (a *AI) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	systemPrompt := resolvePrompt(a.opts.SystemPrompt, source, target)
	userPrompt := buildUserPrompt(texts, source, target)

	text, err := a.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	return parseTranslations(text, len(texts))
}

// ---------------------------------------------------------------------------
// Prompts
// ---------------------------------------------------------------------------

// DefaultSystemPrompt is the system prompt sent with every batch.
// {{sourceLang}} and {{targetLang}} are replaced with language names.
const DefaultSystemPrompt = `You are a professional translator specializing in software and product localization. You are translating UI strings of an application from {{sourceLang}} to {{targetLang}}.

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in the target language, not word-for-word
- Use idiomatic expressions natural to {{targetLang}}, not literal translations
- Use IT/software terminology that is standard in the {{targetLang}} tech community
- Maintain the original tone and intent

TECHNICAL REQUIREMENTS:
- Return ONLY a JSON array of translated strings, one for each input entry, in the same order.
- Preserve placeholders exactly as-is (:name, :count, {name}, {{count}}, %s, %d, etc.).
- Preserve HTML tags, leading/trailing whitespace, newlines, and punctuation patterns.
- Keep brand names and proper nouns unchanged.
- Return ONLY the JSON array, no explanations or markdown code blocks.`

func resolvePrompt(prompt, source, target string) string {
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	prompt = strings.ReplaceAll(prompt, "{{sourceLang}}", langmeta.Resolve(source).Name)
	return strings.ReplaceAll(prompt, "{{targetLang}}", langmeta.Resolve(target).Name)
}

func buildUserPrompt(texts []string, source, target string) string {
	var userMsg strings.Builder
	userMsg.WriteString(fmt.Sprintf("Translate these strings from %s to %s:\n\n",
		langmeta.Resolve(source).Name, langmeta.Resolve(target).Name))
	for i, s := range texts {
		userMsg.WriteString(fmt.Sprintf("%d. %s\n", i+1, escapeForPrompt(s)))
	}
	userMsg.WriteString(fmt.Sprintf("\nReturn a JSON array with exactly %d translated strings.", len(texts)))
	return userMsg.String()
}

// escapeForPrompt prepares a string for inclusion in the AI prompt.
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return fmt.Sprintf(`"%s"`, s)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
