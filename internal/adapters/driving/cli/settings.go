package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

var (
	settingsJSON     bool
	settingsProvider string
	settingsModel    string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the vector store, embedding provider and summariser.

Settings are stored in ~/.zerosignal/config.toml. QDRANT_URL, QDRANT_API_KEY,
REDIS_URL, OPENAI_API_KEY, ANTHROPIC_API_KEY and ZEROSIGNAL_STORE override the
stored values and may be set in a .env file.`,
	Annotations: map[string]string{skipBootstrap: "true"},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Configure the vector store backend",
	RunE:  runSettingsStore,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used for ingest and search.
Changing the model changes vector sizes, so existing packs must be re-ingested.`,
	Example: `  zerosignal settings embedding
  zerosignal settings embedding --provider ollama --model nomic-embed-text`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return configureProvider(cmd, embeddingSetup())
	},
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long: `Configure the LLM provider used to summarise chunks during ingest.
Without one, packs are built from the raw chunk text.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return configureProvider(cmd, llmSetup())
	},
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and ping the configured providers",
	RunE:  runSettingsCheck,
}

func init() {
	for _, c := range []*cobra.Command{settingsCmd, settingsShowCmd} {
		c.Flags().BoolVar(&settingsJSON, "json", false, "print settings as JSON with keys masked")
	}
	for _, c := range []*cobra.Command{settingsEmbeddingCmd, settingsLLMCmd} {
		c.Flags().StringVar(&settingsProvider, "provider", "", "provider name, skips the menu")
		c.Flags().StringVar(&settingsModel, "model", "", "model name, skips the model prompt")
	}

	settingsCmd.AddCommand(settingsShowCmd, settingsStoreCmd, settingsEmbeddingCmd, settingsLLMCmd, settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func loadSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	problem := settingsService.Validate()

	if settingsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(newSettingsView(settings, problem))
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	store := settings.Store
	section(cmd, "Store")
	field(cmd, "Backend", store.Backend.Description())
	switch store.Backend {
	case domain.StoreBackendQdrant:
		field(cmd, "URL", store.QdrantURL)
		if store.QdrantAPIKey != "" {
			field(cmd, "API Key", maskAPIKey(store.QdrantAPIKey))
		}
	case domain.StoreBackendRedis:
		field(cmd, "URL", store.RedisURL)
	}
	field(cmd, "Collection prefix", store.CollectionPrefix)
	field(cmd, "Timeout", store.Timeout.String())

	emb := settings.Embedding
	section(cmd, "Embedding")
	showProvider(cmd, emb.Provider, emb.Model, emb.BaseURL, emb.APIKey, emb.IsConfigured())
	if emb.RateLimit > 0 {
		field(cmd, "Rate limit", fmt.Sprintf("%.1f req/s", emb.RateLimit))
	}

	section(cmd, "LLM")
	if settings.LLM.Provider == "" {
		field(cmd, "Provider", "(none, chunks are stored unsummarised)")
	} else {
		l := settings.LLM
		showProvider(cmd, l.Provider, l.Model, l.BaseURL, l.APIKey, l.IsConfigured())
	}

	section(cmd, "Server")
	field(cmd, "Address", settings.Server.Addr)
	field(cmd, "Default top_k", strconv.Itoa(settings.Server.DefaultTopK))

	section(cmd, "Ingest")
	field(cmd, "Workers", strconv.Itoa(settings.Ingest.Workers))
	field(cmd, "Retries", fmt.Sprintf("%d per batch, %d for the registry",
		settings.Ingest.MaxRetries, settings.Ingest.RegistryRetries))
	field(cmd, "User agent", settings.Scraper.UserAgent)
	cmd.Println()

	if problem != nil {
		cmd.Printf("Warning: %v\n", problem)
		cmd.Println("Run 'zerosignal settings embedding' or 'zerosignal settings store' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func section(cmd *cobra.Command, name string) {
	cmd.Printf("\n[%s]\n", name)
}

func field(cmd *cobra.Command, label, value string) {
	cmd.Printf("  %s: %s\n", label, value)
}

func showProvider(cmd *cobra.Command, p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	field(cmd, "Provider", p.Description())
	field(cmd, "Model", model)
	switch {
	case !p.RequiresAPIKey():
		field(cmd, "Base URL", baseURL)
	case apiKey != "":
		field(cmd, "API Key", maskAPIKey(apiKey))
	default:
		field(cmd, "API Key", "(not set)")
	}
	field(cmd, "Status", configuredStatus(configured))
}

type providerView struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	BaseURL    string `json:"base_url,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	Configured bool   `json:"configured"`
}

type settingsView struct {
	Store struct {
		Backend          string `json:"backend"`
		URL              string `json:"url,omitempty"`
		APIKey           string `json:"api_key,omitempty"`
		CollectionPrefix string `json:"collection_prefix"`
		Timeout          string `json:"timeout"`
	} `json:"store"`
	Embedding providerView  `json:"embedding"`
	LLM       *providerView `json:"llm,omitempty"`
	Server    struct {
		Addr        string `json:"addr"`
		DefaultTopK int    `json:"default_top_k"`
	} `json:"server"`
	Valid   bool   `json:"valid"`
	Problem string `json:"problem,omitempty"`
}

func newSettingsView(s *domain.AppSettings, problem error) settingsView {
	var v settingsView
	v.Store.Backend = string(s.Store.Backend)
	switch s.Store.Backend {
	case domain.StoreBackendQdrant:
		v.Store.URL = s.Store.QdrantURL
		if s.Store.QdrantAPIKey != "" {
			v.Store.APIKey = maskAPIKey(s.Store.QdrantAPIKey)
		}
	case domain.StoreBackendRedis:
		v.Store.URL = s.Store.RedisURL
	}
	v.Store.CollectionPrefix = s.Store.CollectionPrefix
	v.Store.Timeout = s.Store.Timeout.String()

	v.Embedding = newProviderView(s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL,
		s.Embedding.APIKey, s.Embedding.IsConfigured())
	if s.LLM.Provider != "" {
		llm := newProviderView(s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured())
		v.LLM = &llm
	}

	v.Server.Addr = s.Server.Addr
	v.Server.DefaultTopK = s.Server.DefaultTopK
	v.Valid = problem == nil
	if problem != nil {
		v.Problem = problem.Error()
	}
	return v
}

func newProviderView(p domain.AIProvider, model, baseURL, apiKey string, configured bool) providerView {
	v := providerView{Provider: string(p), Model: model, Configured: configured}
	if p.RequiresAPIKey() {
		if apiKey != "" {
			v.APIKey = maskAPIKey(apiKey)
		}
	} else {
		v.BaseURL = baseURL
	}
	return v
}

func runSettingsStore(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	in := newPrompter(cmd)

	backends := domain.AllStoreBackends()
	labels := make([]string, len(backends))
	for i, b := range backends {
		labels[i] = b.Description()
	}
	backend := backends[in.choose("Select Store Backend", labels)]
	settings.Store.Backend = backend

	switch backend {
	case domain.StoreBackendQdrant:
		settings.Store.QdrantURL = in.ask("Enter Qdrant URL", settings.Store.QdrantURL)
		if key := in.secret("Enter Qdrant API key (blank for none): "); key != "" {
			settings.Store.QdrantAPIKey = key
		}
	case domain.StoreBackendRedis:
		settings.Store.RedisURL = in.ask("Enter Redis URL", settings.Store.RedisURL)
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save store settings: %w", err)
	}
	cmd.Printf("Store backend set to: %s\n", backend.Description())
	return nil
}

// providerSetup describes one of the two provider prompts.
type providerSetup struct {
	kind      string
	providers []domain.AIProvider
	defaults  map[domain.AIProvider]string
	save      func(domain.AIProvider, string, string) error
	footer    []string
}

func embeddingSetup() providerSetup {
	return providerSetup{
		kind:      "Embedding",
		providers: domain.AllEmbeddingProviders(),
		defaults:  domain.DefaultEmbeddingModels(),
		save:      func(p domain.AIProvider, m, k string) error { return settingsService.SetEmbeddingProvider(p, m, k) },
		footer:    []string{"Existing packs must be re-ingested if the embedding model changed."},
	}
}

func llmSetup() providerSetup {
	return providerSetup{
		kind:      "LLM",
		providers: domain.AllLLMProviders(),
		defaults:  domain.DefaultLLMModels(),
		save:      func(p domain.AIProvider, m, k string) error { return settingsService.SetLLMProvider(p, m, k) },
	}
}

// configureProvider asks for provider, model and key. --provider and
// --model skip their prompts; the key is always read without echo.
func configureProvider(cmd *cobra.Command, setup providerSetup) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	in := newPrompter(cmd)

	var provider domain.AIProvider
	if settingsProvider != "" {
		provider = domain.AIProvider(strings.ToLower(settingsProvider))
		if !containsProvider(setup.providers, provider) {
			return fmt.Errorf("%w: %s does not support provider %q", domain.ErrInvalidInput, strings.ToLower(setup.kind), settingsProvider)
		}
	} else {
		labels := make([]string, len(setup.providers))
		for i, p := range setup.providers {
			labels[i] = p.Description()
		}
		provider = setup.providers[in.choose("Select "+setup.kind+" Provider", labels)]
	}

	model := settingsModel
	if model == "" {
		model = in.ask("Enter model name", setup.defaults[provider])
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		if apiKey = in.secret("Enter API key: "); apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := setup.save(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", setup.kind, err)
	}

	cmd.Printf("%s provider configured: %s (%s)\n", setup.kind, provider.Description(), model)
	for _, line := range setup.footer {
		cmd.Println(line)
	}
	cmd.Println("Run 'zerosignal settings check' to verify the provider is reachable.")
	return nil
}

func containsProvider(list []domain.AIProvider, p domain.AIProvider) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Validating settings... ")
	if err := settingsService.Validate(); err != nil {
		cmd.Println("FAILED")
		return err
	}
	cmd.Println("OK")

	if checkProviders == nil {
		return nil
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	cmd.Print("Pinging providers... ")
	if err := checkProviders(settings); err != nil {
		cmd.Println("FAILED")
		return err
	}
	cmd.Println("OK")
	return nil
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

// prompter reads answers from the command's input. Secrets are read without
// echo when that input is a terminal.
type prompter struct {
	cmd    *cobra.Command
	raw    io.Reader
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	raw := cmd.InOrStdin()
	return &prompter{cmd: cmd, raw: raw, reader: bufio.NewReader(raw)}
}

func (p *prompter) line() string {
	s, _ := p.reader.ReadString('\n')
	return strings.TrimSpace(s)
}

// ask prints the question with its default and returns the answer or the
// default when the answer is blank.
func (p *prompter) ask(question, def string) string {
	p.cmd.Printf("%s [%s]: ", question, def)
	if answer := p.line(); answer != "" {
		return answer
	}
	return def
}

// choose lists options numbered from 1 and returns the picked index.
// Anything unparseable picks the first option.
func (p *prompter) choose(title string, options []string) int {
	p.cmd.Println(title)
	for i, o := range options {
		p.cmd.Printf("  %d. %s\n", i+1, o)
	}
	p.cmd.Print("\nEnter choice [1]: ")
	return parseChoice(p.line(), len(options), 1) - 1
}

func (p *prompter) secret(question string) string {
	p.cmd.Print(question)
	defer p.cmd.Println()
	if f, ok := p.raw.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if b, err := term.ReadPassword(int(f.Fd())); err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return p.line()
}

func parseChoice(input string, maxVal, defaultVal int) int {
	val, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
