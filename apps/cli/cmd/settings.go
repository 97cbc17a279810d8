package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/config"
	"github.com/abdul-hamid-achik/fitcheck/packages/core/env"
	"github.com/abdul-hamid-achik/fitcheck/packages/http"
	"github.com/abdul-hamid-achik/fitcheck/packages/notify"
	"github.com/abdul-hamid-achik/fitcheck/packages/output"
)

// settings is everything a run needs, resolved from defaults, the config
// file, the environment and flags, in increasing precedence
type settings struct {
	ConfigPath string
	EnvFile    string

	BaseURL         string
	Timeout         time.Duration
	Retries         int
	RetryDelay      time.Duration
	Rate            float64
	Proxy           string
	ValidateSSL     bool
	FollowRedirects bool
	MaxRedirects    int
	Headers         map[string]string

	Output     string
	OutputFile string
	Verbose    int
	Quiet      bool
	NoColor    bool

	History string

	Metrics       []string
	MetricsFile   string
	DataDogAPIKey string
	DataDogSite   string
	DataDogTags   []string

	Notify       []string
	NotifyOn     notify.NotifyOn
	SlackWebhook string
	SlackChannel string

	Watch  bool
	DryRun bool
}

func addRunFlags(fs *pflag.FlagSet) {
	// Core flags
	fs.String("base-url", config.DefaultBaseURL, "FitTogether API base URL (env: FITCHECK_BASE_URL)")
	fs.String("config", "", "Path to config file (env: FITCHECK_CONFIG)")
	fs.String("env-file", "", "Path to .env file exported before settings are read (env: FITCHECK_ENV_FILE)")

	// Network flags
	fs.Duration("timeout", http.DefaultTimeout, "Per-request timeout (e.g., 10s, 1m) (env: FITCHECK_TIMEOUT)")
	fs.Int("retries", 0, "Retries for requests that got no response (env: FITCHECK_RETRIES)")
	fs.Duration("retry-delay", http.DefaultRetryDelay, "Pause between retries (env: FITCHECK_RETRY_DELAY)")
	fs.Float64("rate", 0, "Maximum requests per second, 0 for no limit (env: FITCHECK_RATE)")
	fs.String("proxy", "", "Proxy URL for HTTP requests (env: FITCHECK_PROXY)")
	fs.BoolP("insecure", "k", false, "Disable SSL certificate validation (env: FITCHECK_INSECURE)")
	fs.StringArrayP("header", "H", nil, "Extra request header \"Key: Value\" (repeatable)")

	// Output flags
	fs.StringP("output", "o", output.FormatConsole, "Output format: console, json, junit, tap (env: FITCHECK_OUTPUT)")
	fs.String("output-file", "", "Write output to file (default: stdout) (env: FITCHECK_OUTPUT_FILE)")
	fs.CountP("verbose", "v", "Verbose output (-v request details, -vv log every HTTP call)")
	fs.BoolP("quiet", "q", false, "Only print failures and the summary (env: FITCHECK_QUIET)")
	fs.Bool("no-color", false, "Disable colored output (env: FITCHECK_NO_COLOR)")

	// History
	fs.String("history", "", "Store the run: sqlite://path or postgres://... (env: FITCHECK_HISTORY)")

	// Metrics flags
	fs.String("metrics", "", "Metrics export formats: json, prometheus, datadog (env: FITCHECK_METRICS)")
	fs.String("metrics-file", "", "Output file for metrics (default: stdout) (env: FITCHECK_METRICS_FILE)")
	fs.String("datadog-api-key", "", "DataDog API key (env: DD_API_KEY)")
	fs.String("datadog-site", "datadoghq.com", "DataDog site (env: DD_SITE)")
	fs.String("datadog-tags", "", "Comma-separated DataDog tags (env: DD_TAGS)")

	// Notification flags
	fs.String("notify", "", "Notification services: slack (env: FITCHECK_NOTIFY)")
	fs.String("notify-on", string(notify.NotifyFailure), "When to notify: always, failure, success, recovery (env: FITCHECK_NOTIFY_ON)")
	fs.String("slack-webhook", "", "Slack webhook URL (env: SLACK_WEBHOOK)")
	fs.String("slack-channel", "", "Slack channel override (env: SLACK_CHANNEL)")

	// Execution flags
	fs.BoolP("watch", "w", false, "Re-run when the config or env file changes")
	fs.Bool("dry-run", false, "Show what would run without sending requests")
}

// Flag, then environment variable, then the fallback taken from the config.

func stringSetting(fs *pflag.FlagSet, name, envKey, fallback string) string {
	if fs.Changed(name) {
		v, _ := fs.GetString(name)
		return v
	}
	return env.String(envKey, fallback)
}

func boolSetting(fs *pflag.FlagSet, name, envKey string, fallback bool) bool {
	if fs.Changed(name) {
		v, _ := fs.GetBool(name)
		return v
	}
	return env.Bool(envKey, fallback)
}

func intSetting(fs *pflag.FlagSet, name, envKey string, fallback int) int {
	if fs.Changed(name) {
		v, _ := fs.GetInt(name)
		return v
	}
	return env.Int(envKey, fallback)
}

func floatSetting(fs *pflag.FlagSet, name, envKey string, fallback float64) float64 {
	if fs.Changed(name) {
		v, _ := fs.GetFloat64(name)
		return v
	}
	return env.Float(envKey, fallback)
}

func durationSetting(fs *pflag.FlagSet, name, envKey string, fallback time.Duration) time.Duration {
	if fs.Changed(name) {
		v, _ := fs.GetDuration(name)
		return v
	}
	return env.Duration(envKey, fallback)
}

func listSetting(fs *pflag.FlagSet, name, envKey string, fallback []string) []string {
	raw := ""
	switch {
	case fs.Changed(name):
		raw, _ = fs.GetString(name)
	case env.Set(envKey):
		return env.List(envKey)
	default:
		return fallback
	}
	return splitList(raw)
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.ToLower(item))
	}
	return out
}

// dotenv survives between loads so watch mode can re-read a changed file
var dotenv *env.Reloader

// loadSettings exports the env file, reads the config file and resolves
// every setting
func loadSettings(fs *pflag.FlagSet) (*settings, error) {
	envFile := stringSetting(fs, "env-file", "FITCHECK_ENV_FILE", "")
	if envFile != "" {
		if dotenv == nil || dotenv.Path() != envFile {
			dotenv = env.NewReloader(envFile)
		}
		if err := dotenv.Load(); err != nil {
			return nil, configError("%w", err)
		}
	}

	configPath := stringSetting(fs, "config", "FITCHECK_CONFIG", "")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, configError("%w", err)
	}

	s, err := resolveSettings(fs, cfg)
	if err != nil {
		return nil, err
	}
	s.EnvFile = envFile
	s.ConfigPath = cfg.Source
	return s, nil
}

func resolveSettings(fs *pflag.FlagSet, cfg *config.Config) (*settings, error) {
	s := &settings{
		BaseURL:         strings.TrimRight(stringSetting(fs, "base-url", "FITCHECK_BASE_URL", cfg.BaseURL), "/"),
		Timeout:         durationSetting(fs, "timeout", "FITCHECK_TIMEOUT", time.Duration(cfg.Timeout)*time.Millisecond),
		Retries:         intSetting(fs, "retries", "FITCHECK_RETRIES", cfg.Retries),
		RetryDelay:      durationSetting(fs, "retry-delay", "FITCHECK_RETRY_DELAY", time.Duration(cfg.RetryDelay)*time.Millisecond),
		Rate:            floatSetting(fs, "rate", "FITCHECK_RATE", cfg.Rate),
		Proxy:           stringSetting(fs, "proxy", "FITCHECK_PROXY", cfg.Proxy),
		ValidateSSL:     !boolSetting(fs, "insecure", "FITCHECK_INSECURE", !cfg.GetValidateSSL()),
		FollowRedirects: cfg.GetFollowRedirects(),
		MaxRedirects:    cfg.MaxRedirects,
		Headers:         make(map[string]string),

		Output:     strings.ToLower(stringSetting(fs, "output", "FITCHECK_OUTPUT", cfg.Output)),
		OutputFile: stringSetting(fs, "output-file", "FITCHECK_OUTPUT_FILE", cfg.OutputFile),
		Quiet:      boolSetting(fs, "quiet", "FITCHECK_QUIET", false),
		NoColor:    boolSetting(fs, "no-color", "FITCHECK_NO_COLOR", cfg.GetNoColor()) || env.Set("NO_COLOR"),

		History: stringSetting(fs, "history", "FITCHECK_HISTORY", cfg.History),

		DataDogAPIKey: stringSetting(fs, "datadog-api-key", "DD_API_KEY", ""),
		DataDogSite:   stringSetting(fs, "datadog-site", "DD_SITE", "datadoghq.com"),

		SlackWebhook: stringSetting(fs, "slack-webhook", "SLACK_WEBHOOK", ""),
		SlackChannel: stringSetting(fs, "slack-channel", "SLACK_CHANNEL", ""),
	}
	s.Watch, _ = fs.GetBool("watch")
	s.DryRun, _ = fs.GetBool("dry-run")

	s.Verbose, _ = fs.GetCount("verbose")
	if !fs.Changed("verbose") {
		fallback := 0
		if cfg.GetVerbose() {
			fallback = 1
		}
		s.Verbose = env.Int("FITCHECK_VERBOSE", fallback)
	}

	for k, v := range cfg.Headers {
		s.Headers[k] = v
	}
	headers, _ := fs.GetStringArray("header")
	for _, h := range headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, configError("invalid header %q (expected \"Key: Value\")", h)
		}
		s.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	var metricFormats []string
	if cfg.Metrics != nil {
		metricFormats = cfg.Metrics.Formats
		s.MetricsFile = cfg.Metrics.File
		if dd := cfg.Metrics.DataDog; dd != nil {
			if dd.APIKey != "" && s.DataDogAPIKey == "" {
				s.DataDogAPIKey = dd.APIKey
			}
			if dd.Site != "" && !fs.Changed("datadog-site") && !env.Set("DD_SITE") {
				s.DataDogSite = dd.Site
			}
			s.DataDogTags = dd.Tags
		}
	}
	s.Metrics = lowerAll(listSetting(fs, "metrics", "FITCHECK_METRICS", metricFormats))
	s.MetricsFile = stringSetting(fs, "metrics-file", "FITCHECK_METRICS_FILE", s.MetricsFile)
	if tags := listSetting(fs, "datadog-tags", "DD_TAGS", nil); tags != nil {
		s.DataDogTags = tags
	}

	var services []string
	notifyOn := string(notify.NotifyFailure)
	if n := cfg.Notify; n != nil {
		services = n.Services
		if n.On != "" {
			notifyOn = n.On
		}
		if n.Slack != nil {
			if s.SlackWebhook == "" {
				s.SlackWebhook = n.Slack.Webhook
			}
			if s.SlackChannel == "" {
				s.SlackChannel = n.Slack.Channel
			}
		}
	}
	s.Notify = lowerAll(listSetting(fs, "notify", "FITCHECK_NOTIFY", services))
	on, err := notify.ParseNotifyOn(stringSetting(fs, "notify-on", "FITCHECK_NOTIFY_ON", notifyOn))
	if err != nil {
		return nil, configError("%w", err)
	}
	s.NotifyOn = on

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *settings) validate() error {
	if err := http.ValidateURL(s.BaseURL); err != nil {
		return configError("invalid base URL %q: %w", s.BaseURL, err)
	}
	if s.Proxy != "" {
		if err := http.ValidateProxyURL(s.Proxy); err != nil {
			return configError("invalid proxy URL %q: %w", s.Proxy, err)
		}
	}

	switch s.Output {
	case output.FormatConsole, output.FormatJSON, output.FormatJUnit, output.FormatTAP:
	default:
		return configError("unknown output format %q (expected console, json, junit or tap)", s.Output)
	}

	switch {
	case s.Timeout <= 0:
		return configError("timeout must be positive")
	case s.Retries < 0:
		return configError("retries must not be negative")
	case s.Rate < 0:
		return configError("rate must not be negative")
	}

	for _, m := range s.Metrics {
		switch m {
		case "json", "prometheus", "datadog":
		default:
			return configError("unknown metrics format %q (expected json, prometheus or datadog)", m)
		}
	}

	for _, n := range s.Notify {
		switch n {
		case "slack":
			if s.SlackWebhook == "" {
				return configError("--slack-webhook is required when using --notify slack")
			}
		default:
			return configError("unknown notification service %q (expected slack)", n)
		}
	}
	return nil
}

func (s *settings) String() string {
	return fmt.Sprintf("%s (timeout %s, retries %d)", s.BaseURL, s.Timeout, s.Retries)
}
