// Package oracle is a client for the change-specific-dependencies web service.
// The service answers four questions over SOAP 1.1: which projects exist,
// which change scenarios a project has, which projects a set of scenarios
// affects, and where each project's build descriptor lives in the checkout.
package oracle

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/buildshortcut/shortcut/pkg/failure"
)

// Operation names exposed by the service.
const (
	OpPossibleProjectNames       = "getPossibleProjectNames"
	OpChangeScenarios            = "getChangeScenarios"
	OpChangeSpecificDependencies = "getChangeSpecificDependencies"
	OpBuildSpecificationPaths    = "getBuildSpecificationPaths"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultProbeTimeout = 5 * time.Second
	maxResponseSize     = 16 << 20
)

// Options configures a Client.
type Options struct {
	WSDL         string        // WSDL URL; the SOAP endpoint is this URL without its query
	Namespace    string        // target namespace of the operations
	Timeout      time.Duration // per call
	ProbeTimeout time.Duration
	HTTPClient   *http.Client // optional
	Logger       *slog.Logger
}

// Client talks to the oracle. It holds no mutable state and is safe for
// concurrent use.
type Client struct {
	wsdl         string
	endpoint     string
	namespace    string
	timeout      time.Duration
	probeTimeout time.Duration
	http         *http.Client
	logger       *slog.Logger
}

// New validates opts and returns a client without contacting the service.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.WSDL)
	if err != nil {
		return nil, fmt.Errorf("parsing wsdl url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("wsdl url %q: unsupported scheme %q", opts.WSDL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("wsdl url %q: missing host", opts.WSDL)
	}
	if opts.Namespace == "" {
		return nil, errors.New("oracle namespace is empty")
	}

	endpoint := *u
	endpoint.RawQuery = ""
	endpoint.Fragment = ""

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		wsdl:         opts.WSDL,
		endpoint:     endpoint.String(),
		namespace:    opts.Namespace,
		timeout:      timeout,
		probeTimeout: probeTimeout,
		http:         hc,
		logger:       logger,
	}, nil
}

// Connect creates a client and checks once that the service answers.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	c, err := New(opts)
	if err != nil {
		return nil, failure.New(failure.ServiceUnavailable, "invalid web service address", err).
			WithHints(unavailableHints()...)
	}
	if err := c.Probe(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Endpoint returns the SOAP endpoint address.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// WSDL returns the WSDL URL the client was configured with.
func (c *Client) WSDL() string {
	return c.wsdl
}

// Probe fetches the WSDL document and fails unless the service answers 2xx.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.wsdl, nil)
	if err != nil {
		return fmt.Errorf("creating probe request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("oracle probe failed", "wsdl", c.wsdl, "error", err)
		return failure.New(failure.ServiceUnavailable, "web service not found", err).
			WithHints(unavailableHints()...)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure.Newf(failure.ServiceUnavailable, "web service not found (HTTP %d from %s)", resp.StatusCode, c.wsdl).
			WithHints(unavailableHints()...)
	}
	c.logger.Debug("oracle reachable", "wsdl", c.wsdl)
	return nil
}

func unavailableHints() []string {
	return []string{
		`The path specified in the environment variable "B_SHORTCUT_WSDL" may be invalid.`,
		"The web service may be offline.",
	}
}

// ListProjects returns every project name the oracle knows.
func (c *Client) ListProjects(ctx context.Context) ([]string, error) {
	items, f, err := c.call(ctx, OpPossibleProjectNames, nil)
	if err != nil {
		return nil, err
	}
	if f != nil {
		return nil, failure.New(failure.ServiceUnavailable, "could not list projects", errors.New(f.message()))
	}
	return items, nil
}

// ListScenarios returns the change scenarios of a project in oracle order.
func (c *Client) ListScenarios(ctx context.Context, project string) ([]string, error) {
	items, f, err := c.call(ctx, OpChangeScenarios, stringArg(project))
	if err != nil {
		return nil, err
	}
	if f != nil {
		return nil, faultError(f, failure.UnknownProject,
			fmt.Sprintf("could not find change scenarios for project %s", project))
	}
	if len(items) == 0 {
		return nil, failure.Newf(failure.InvalidResponse, "oracle returned no change scenarios for project %s", project)
	}
	return items, nil
}

// ResolveDependents returns the projects affected by the given scenarios.
// The answer may be empty.
func (c *Client) ResolveDependents(ctx context.Context, scenarios []string) ([]string, error) {
	if len(scenarios) == 0 {
		return nil, errors.New("resolving dependents: no change scenarios given")
	}
	items, f, err := c.call(ctx, OpChangeSpecificDependencies, listArg(scenarios))
	if err != nil {
		return nil, err
	}
	if f != nil {
		return nil, faultError(f, failure.UnknownScenario, "could not resolve dependencies")
	}
	return items, nil
}

// ResolveBuildPaths returns the build descriptor path of each named project,
// relative to the checkout root.
func (c *Client) ResolveBuildPaths(ctx context.Context, projects []string) ([]string, error) {
	if len(projects) == 0 {
		return nil, nil
	}
	items, f, err := c.call(ctx, OpBuildSpecificationPaths, listArg(projects))
	if err != nil {
		return nil, err
	}
	if f != nil {
		return nil, faultError(f, failure.UnknownProject, "could not find build specification paths")
	}
	return items, nil
}

func faultError(f *soapFault, rejection failure.Kind, msg string) error {
	kind := failure.ServiceUnavailable
	if f.rejectsArgument() {
		kind = rejection
	}
	return failure.New(kind, msg, errors.New(f.message()))
}

// call performs one SOAP exchange. A SOAP fault is returned separately so
// each operation can classify it.
func (c *Client) call(ctx context.Context, op string, arg *argument) ([]string, *soapFault, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(newRequest(c.namespace, op, arg)); err != nil {
		return nil, nil, fmt.Errorf("encoding %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)
	req.Header.Set("User-Agent", "b-shortcut")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("oracle call failed", "operation", op, "error", err)
		msg := fmt.Sprintf("web service call %s failed", op)
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			msg = fmt.Sprintf("web service call %s timed out", op)
		}
		return nil, nil, failure.New(failure.ServiceUnavailable, msg, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, failure.New(failure.ServiceUnavailable,
			fmt.Sprintf("reading %s response", op), err)
	}

	var env responseEnvelope
	decodeErr := xml.Unmarshal(data, &env)
	if decodeErr == nil && env.Body.Fault != nil {
		c.logger.Debug("oracle fault", "operation", op, "code", env.Body.Fault.Code, "message", env.Body.Fault.message())
		return nil, env.Body.Fault, nil
	}
	if resp.StatusCode >= 500 {
		return nil, nil, failure.Newf(failure.ServiceUnavailable, "web service call %s: HTTP %d", op, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, failure.Newf(failure.InvalidResponse, "web service call %s: HTTP %d", op, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, nil, failure.New(failure.InvalidResponse,
			fmt.Sprintf("decoding %s response", op), decodeErr)
	}
	if env.Body.Result == nil || env.Body.Result.XMLName.Local != op+"Response" {
		return nil, nil, failure.Newf(failure.InvalidResponse, "web service call %s: missing %sResponse element", op, op)
	}

	items := env.Body.Result.items()
	c.logger.Debug("oracle call",
		"operation", op,
		"items", len(items),
		"duration", time.Since(start),
	)
	return items, nil, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
