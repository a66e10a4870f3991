// Package remote maintains the set of capabilities a remote service
// declares, and provides one generic invoke path that degrades cleanly when
// that service is unreachable.
//
// Descriptors are registered from a declarative listing, never from
// per-capability code, so everything the server sends is validated and
// normalised defensively: partial, malformed, or disappearing capability
// sets must be safe at every call site.
//
// Discovery protocol:
//
//	GET {base}/health      → 200 means alive (short timeout)
//	GET {base}/tools/list  → {"tools":[{"name","description","endpoint","method"}]}
//	{method} {base}{endpoint} → invocation; arguments as query params (GET)
//	                            or JSON body (POST)
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Status is the registry lifecycle state.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusDiscovering   Status = "discovering"
	StatusReady         Status = "ready"
	StatusUnavailable   Status = "unavailable"
)

// ErrCapabilityNotFound is returned by Invoke when the name is not in the
// current descriptor set. No network call is made in that case.
var ErrCapabilityNotFound = errors.New("capability not found")

// wireDescriptor is the shape servers declare in their discovery listing.
type wireDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Endpoint    string `json:"endpoint"`
	Method      string `json:"method"`
}

type discoveryListing struct {
	Tools []wireDescriptor `json:"tools"`
}

// Descriptor is one registered remote capability.
type Descriptor struct {
	Name        string
	Description string
	Endpoint    string
	Method      string // "GET" or "POST"
}

// Registry holds the current discovery epoch's descriptor set and the
// invocation plumbing. All methods are safe for concurrent use.
type Registry struct {
	baseURL         string
	discoveryPath   string
	healthTimeout   time.Duration
	discoverTimeout time.Duration
	invokeTimeout   time.Duration
	httpClient      *http.Client

	mu          sync.Mutex
	status      Status
	descriptors map[string]Descriptor
}

// Option configures a Registry.
type Option func(*Registry)

// WithTimeouts overrides the per-operation timeouts. Zero values keep the
// defaults (5s health, 10s discovery, 30s invocation).
func WithTimeouts(health, discover, invoke time.Duration) Option {
	return func(r *Registry) {
		if health > 0 {
			r.healthTimeout = health
		}
		if discover > 0 {
			r.discoverTimeout = discover
		}
		if invoke > 0 {
			r.invokeTimeout = invoke
		}
	}
}

// WithDiscoveryPath overrides the listing path (default /tools/list).
func WithDiscoveryPath(path string) Option {
	return func(r *Registry) {
		if path != "" {
			r.discoveryPath = path
		}
	}
}

// New creates a Registry for the remote service at baseURL.
// The registry starts UNINITIALIZED; call Discover to populate it.
func New(baseURL string, opts ...Option) *Registry {
	r := &Registry{
		baseURL:         strings.TrimRight(baseURL, "/"),
		discoveryPath:   "/tools/list",
		healthTimeout:   5 * time.Second,
		discoverTimeout: 10 * time.Second,
		invokeTimeout:   30 * time.Second,
		// Per-call timeouts come from request contexts; the client itself
		// has none so invocation can outlive discovery limits.
		httpClient:  &http.Client{},
		status:      StatusUninitialized,
		descriptors: map[string]Descriptor{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Status returns the current lifecycle state.
func (r *Registry) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Count returns the size of the current descriptor set.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.descriptors)
}

// HealthCheck probes the remote /health endpoint with a short timeout.
// It never returns an error: any transport failure means "not alive".
// A successful probe moves UNAVAILABLE → READY (and vice versa) without
// re-discovery, provided the registry has been through discovery before.
func (r *Registry) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, r.healthTimeout)
	defer cancel()

	alive := false
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err == nil {
		resp, err := r.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			alive = resp.StatusCode == http.StatusOK
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case alive && r.status == StatusUnavailable && len(r.descriptors) > 0:
		r.status = StatusReady
	case !alive && r.status == StatusReady:
		r.status = StatusUnavailable
	}
	return alive
}

// Discover fetches the capability listing and, on success, atomically
// replaces the descriptor set. On any transport error or malformed listing
// the previous set is left untouched and the registry reports UNAVAILABLE.
// Individual malformed entries are skipped with a warning, not fatal.
func (r *Registry) Discover(ctx context.Context) error {
	r.mu.Lock()
	r.status = StatusDiscovering
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.discoverTimeout)
	defer cancel()

	fail := func(err error) error {
		r.mu.Lock()
		r.status = StatusUnavailable
		r.mu.Unlock()
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+r.discoveryPath, nil)
	if err != nil {
		return fail(fmt.Errorf("build discovery request: %w", err))
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("capability discovery: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("capability discovery: HTTP %d", resp.StatusCode))
	}

	var listing discoveryListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return fail(fmt.Errorf("parse capability listing: %w", err))
	}

	next := map[string]Descriptor{}
	for _, entry := range listing.Tools {
		desc, err := normalize(entry)
		if err != nil {
			slog.Warn("remote: skipping capability entry", "name", entry.Name, "err", err)
			continue
		}
		if _, dup := next[desc.Name]; dup {
			slog.Warn("remote: duplicate capability name in listing", "name", desc.Name)
			continue
		}
		next[desc.Name] = desc
	}

	if len(next) == 0 {
		return fail(fmt.Errorf("capability discovery: listing contained no usable entries"))
	}

	r.mu.Lock()
	r.descriptors = next
	r.status = StatusReady
	r.mu.Unlock()

	slog.Info("remote: discovered capabilities", "count", len(next))
	return nil
}

// normalize validates one server-declared entry and fills defaults.
func normalize(w wireDescriptor) (Descriptor, error) {
	if strings.TrimSpace(w.Name) == "" {
		return Descriptor{}, fmt.Errorf("missing name")
	}
	if w.Endpoint == "" || !strings.HasPrefix(w.Endpoint, "/") {
		return Descriptor{}, fmt.Errorf("bad endpoint %q", w.Endpoint)
	}
	method := strings.ToUpper(strings.TrimSpace(w.Method))
	switch method {
	case "":
		method = http.MethodGet
	case http.MethodGet, http.MethodPost:
	default:
		return Descriptor{}, fmt.Errorf("unsupported method %q", w.Method)
	}
	return Descriptor{
		Name:        w.Name,
		Description: w.Description,
		Endpoint:    w.Endpoint,
		Method:      method,
	}, nil
}

// ListDescriptors returns the current name → description mapping.
func (r *Registry) ListDescriptors() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.descriptors))
	for name, d := range r.descriptors {
		out[name] = d.Description
	}
	return out
}

// Names returns the registered capability names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.descriptors))
	for n := range r.descriptors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named capability against its declared endpoint. An unknown
// name returns ErrCapabilityNotFound without touching the network. Every
// other failure (timeout, connection refusal, non-200 status, application
// error) comes back as a distinct labeled string so the caller can relay a
// specific cause to the user; none of them is an error return.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.Lock()
	desc, ok := r.descriptors[name]
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrCapabilityNotFound, name)
	}

	ctx, cancel := context.WithTimeout(ctx, r.invokeTimeout)
	defer cancel()

	req, err := r.buildRequest(ctx, desc, args)
	if err != nil {
		return fmt.Sprintf("%s failed: %v", name, err), nil
	}

	slog.Info("remote: invoking capability", "name", name, "method", desc.Method)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return fmt.Sprintf("%s timed out after %s", name, r.invokeTimeout), nil
		}
		return fmt.Sprintf("could not connect to remote service for %s", name), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("%s failed reading response: %v", name, err), nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("%s failed with HTTP %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body))), nil
	}

	return formatResult(name, body), nil
}

func (r *Registry) buildRequest(ctx context.Context, desc Descriptor, args map[string]any) (*http.Request, error) {
	target := r.baseURL + desc.Endpoint

	if desc.Method == http.MethodGet {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		for k, v := range args {
			q.Set(k, fmt.Sprint(v))
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, desc.Method, target, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// formatResult gives structured envelopes a consistent human-readable
// framing. An unstructured 200 body is returned as-is.
func formatResult(name string, body []byte) string {
	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Sprintf("%s completed successfully:\n%s", name, strings.TrimSpace(string(body)))
	}

	if successVal, ok := result["success"]; ok {
		success, _ := successVal.(bool)
		if !success {
			errMsg := "unknown error"
			if e, ok := result["error"].(string); ok && e != "" {
				errMsg = e
			}
			return fmt.Sprintf("%s failed: %s", name, errMsg)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s completed successfully", name)
		if msg, ok := result["message"].(string); ok && msg != "" {
			fmt.Fprintf(&b, "\n%s", msg)
		}
		if data, ok := result["data"]; ok && data != nil {
			fmt.Fprintf(&b, "\ndata: %s", renderValue(data))
		}
		return b.String()
	}

	if e, ok := result["error"].(string); ok && e != "" {
		return fmt.Sprintf("%s error: %s", name, e)
	}

	// No envelope: render each field.
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "%s response:\n", name)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, renderValue(result[k]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderValue(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
