package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/riposte/http"
	"github.com/wesleyorama2/riposte/internal/config"
	"github.com/wesleyorama2/riposte/internal/output"
)

// requestOptions is the resolved set of flags and profile settings for a
// single request command invocation.
type requestOptions struct {
	headers    []http.Header
	body       []byte
	timeout    time.Duration
	verbose    bool
	noColor    bool
	format     output.OutputFormat
	extract    string
	schemaFile string
	bufferSize int
	sizes      http.BufferSizes
	retry      *http.RetryPolicy
	baseURL    string
}

// addRequestFlags registers the flag set shared by all request commands.
func addRequestFlags(cmd *cobra.Command, withBody bool) {
	cmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include (can be used multiple times)")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.Flags().DurationP("timeout", "t", 30*time.Second, "Request timeout")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().String("extract", "", "JSONPath expression to extract from the response body")
	cmd.Flags().String("schema", "", "JSON Schema file to validate the response body against")
	cmd.Flags().String("buffers", "default", "Buffer preset: default or small")
	cmd.Flags().Int("buffer-size", 0, "Response buffer capacity in bytes (0 means the preset receive size)")
	cmd.Flags().String("profile", "", "Profile name from the config file")
	cmd.Flags().String("config", "riposte.yaml", "Path to the profile config file")
	if withBody {
		cmd.Flags().StringP("data", "d", "", "Data to send in the request body")
		cmd.Flags().StringP("json", "j", "", "JSON data to send in the request body (sets Content-Type)")
	}
}

// parseRequestOptions resolves flags, and when --profile is given, merges
// the profile underneath them.
func parseRequestOptions(cmd *cobra.Command, withBody bool) (*requestOptions, error) {
	flags := cmd.Flags()

	rawHeaders, _ := flags.GetStringArray("header")
	headers, err := parseHeaderFlags(rawHeaders)
	if err != nil {
		return nil, err
	}

	opts := &requestOptions{
		headers: headers,
		sizes:   http.DefaultBufferSizes(),
	}
	opts.timeout, _ = flags.GetDuration("timeout")
	opts.verbose, _ = flags.GetBool("verbose")

	noColor, _ := flags.GetBool("no-color")
	opts.noColor = resolveNoColor(noColor)

	formatFlag, _ := flags.GetString("output")
	opts.format, err = output.ParseFormat(formatFlag)
	if err != nil {
		return nil, err
	}

	opts.extract, _ = flags.GetString("extract")
	opts.schemaFile, _ = flags.GetString("schema")

	preset, _ := flags.GetString("buffers")
	switch preset {
	case "", "default":
	case "small":
		opts.sizes = http.SmallBufferSizes()
	default:
		return nil, fmt.Errorf("unknown buffer preset %q (want default or small)", preset)
	}
	opts.bufferSize, _ = flags.GetInt("buffer-size")

	if withBody {
		data, _ := flags.GetString("data")
		jsonData, _ := flags.GetString("json")
		switch {
		case data != "" && jsonData != "":
			return nil, fmt.Errorf("--data and --json are mutually exclusive")
		case data != "":
			opts.body = []byte(data)
		case jsonData != "":
			opts.body = []byte(jsonData)
			if _, ok := headerIn(opts.headers, http.HeaderContentType); !ok {
				opts.headers = append(opts.headers, http.ContentType(http.MIMEJSON))
			}
		}
	}

	if profileName, _ := flags.GetString("profile"); profileName != "" {
		configPath, _ := flags.GetString("config")
		if err := opts.applyProfile(cmd, configPath, profileName); err != nil {
			return nil, err
		}
	}

	if opts.bufferSize == 0 {
		opts.bufferSize = opts.sizes.Receive
	}
	return opts, nil
}

// applyProfile layers profile settings under the explicitly set flags.
func (o *requestOptions) applyProfile(cmd *cobra.Command, configPath, profileName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	p, err := cfg.Profile(profileName)
	if err != nil {
		return err
	}

	o.baseURL = p.BaseURL

	// Profile headers come first so flag headers win a lookup.
	o.headers = append(p.HeaderList(), o.headers...)

	if !cmd.Flags().Changed("buffers") {
		o.sizes = p.BufferSizes()
	}
	if o.bufferSize == 0 && p.ResponseBuffer > 0 {
		o.bufferSize = p.ResponseBuffer
	}
	if !cmd.Flags().Changed("timeout") && p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return fmt.Errorf("profile timeout: %w", err)
		}
		o.timeout = d
	}
	if p.Retry != nil {
		policy := http.RetryPolicy{MaxAttempts: p.Retry.MaxAttempts}
		if p.Retry.Delay != "" {
			d, err := time.ParseDuration(p.Retry.Delay)
			if err != nil {
				return fmt.Errorf("profile retry delay: %w", err)
			}
			policy.Delay = d
		}
		o.retry = &policy
	}
	return nil
}

// resolveURL completes a request URL against the profile base URL. A
// path-only argument requires a profile.
func (o *requestOptions) resolveURL(arg string) (string, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return arg, nil
	}
	if o.baseURL == "" {
		return "", fmt.Errorf("relative URL %q requires --profile with a baseUrl", arg)
	}
	return strings.TrimSuffix(o.baseURL, "/") + "/" + strings.TrimPrefix(arg, "/"), nil
}

// newClient builds the engine client from the resolved options.
func (o *requestOptions) newClient() (*http.Client, error) {
	options := []http.ClientOption{
		http.WithBufferSizes(o.sizes),
		http.WithTimeout(o.timeout),
	}
	if o.retry != nil {
		options = append(options, http.WithRetry(*o.retry))
	}
	return http.NewClient(options...)
}

// parseHeaderFlags parses repeated -H "Name: value" flags.
func parseHeaderFlags(raw []string) ([]http.Header, error) {
	var headers []http.Header
	for _, h := range raw {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("malformed header %q (want \"Name: value\")", h)
		}
		headers = append(headers, http.NewHeader(
			strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])))
	}
	return headers, nil
}

func headerIn(headers []http.Header, name string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}
