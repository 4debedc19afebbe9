package replicate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	replicatego "github.com/replicate/replicate-go"

	"videogen/internal/domain"
	"videogen/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = fmt.Errorf("replicate: api key is required: %w", domain.ErrConfiguration)

const (
	defaultBaseURL      = "https://api.replicate.com/v1"
	defaultPollInterval = time.Second
)

// Options configures the Replicate client.
type Options struct {
	APIKey         string
	BaseURL        string
	PollInterval   time.Duration
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client runs predictions through the Replicate SDK. Each Run creates one
// prediction and blocks until it reaches a terminal status.
type Client struct {
	sdk          *replicatego.Client
	initErr      error
	pollInterval time.Duration
	logger       *infra.Logger
}

// NewClient constructs a client with defaults for empty options. A zero
// RequestTimeout leaves the HTTP client without a deadline. Missing
// credentials are reported by Run, not here.
func NewClient(opts Options) *Client {
	c := &Client{
		pollInterval: opts.PollInterval,
		logger:       infra.OrDiscard(opts.Logger),
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}

	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		c.initErr = ErrMissingAPIKey
		return c
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.RequestTimeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	sdk, err := replicatego.NewClient(
		replicatego.WithToken(apiKey),
		replicatego.WithBaseURL(baseURL),
		replicatego.WithHTTPClient(httpClient),
		replicatego.WithRetryPolicy(0, &replicatego.ConstantBackoff{}),
	)
	if err != nil {
		c.initErr = fmt.Errorf("replicate: init client: %w: %w", domain.ErrConfiguration, err)
		return c
	}
	c.sdk = sdk
	return c
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.sdk != nil
}

// Run creates a prediction for model ("owner/name" or "owner/name:version")
// and returns its output once it succeeds. No retries are attempted.
func (c *Client) Run(ctx context.Context, model string, input map[string]any) (any, error) {
	if c.initErr != nil {
		return nil, c.initErr
	}
	owner, name, version, err := parseModel(model)
	if err != nil {
		return nil, err
	}
	if input == nil {
		input = map[string]any{}
	}

	var pred *replicatego.Prediction
	if version != "" {
		pred, err = c.sdk.CreatePrediction(ctx, version, replicatego.PredictionInput(input), nil, false)
	} else {
		pred, err = c.sdk.CreatePredictionWithModel(ctx, owner, name, replicatego.PredictionInput(input), nil, false)
	}
	if err != nil {
		return nil, fmt.Errorf("replicate: create prediction: %w", err)
	}
	c.logger.Debug().
		Str("model", model).
		Str("prediction_id", pred.ID).
		Str("status", string(pred.Status)).
		Msg("replicate: prediction created")

	if !isTerminal(pred.Status) {
		if err := c.sdk.Wait(ctx, pred, replicatego.WithPollingInterval(c.pollInterval)); err != nil {
			return nil, fmt.Errorf("replicate: wait for prediction %s: %w", pred.ID, err)
		}
	}

	switch pred.Status {
	case replicatego.Succeeded:
		c.logger.Debug().Str("model", model).Str("prediction_id", pred.ID).Msg("replicate: prediction succeeded")
		return any(pred.Output), nil
	case replicatego.Canceled:
		return nil, fmt.Errorf("replicate: prediction %s was canceled", pred.ID)
	default:
		return nil, fmt.Errorf("replicate: prediction %s failed: %s", pred.ID, describe(pred.Error))
	}
}

// parseModel splits "owner/name[:version]".
func parseModel(model string) (owner, name, version string, err error) {
	model = strings.TrimSpace(model)
	ref, version, _ := strings.Cut(model, ":")
	owner, name, ok := strings.Cut(ref, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", "", fmt.Errorf("replicate: invalid model identifier %q", model)
	}
	return owner, name, version, nil
}

func isTerminal(status replicatego.Status) bool {
	switch status {
	case replicatego.Succeeded, replicatego.Failed, replicatego.Canceled:
		return true
	}
	return false
}

func describe(v any) string {
	switch e := v.(type) {
	case nil:
		return "unknown error"
	case string:
		return e
	default:
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Sprint(e)
		}
		return string(b)
	}
}
