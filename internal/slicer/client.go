package slicer

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
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/slicerun/internal/domain"
	"github.com/shaiso/slicerun/internal/telemetry"
)

// Default configuration values.
const (
	DefaultURL          = "https://api.slicer.dc1.apstra.com"
	defaultPollInterval = 10 * time.Second
	defaultHTTPTimeout  = 30 * time.Second
)

// --- Request types ---

type createSysTestRequest struct {
	Name         string                    `json:"name"`
	Owner        string                    `json:"owner"`
	TopologySpec domain.TopologyDefinition `json:"topology_spec"`
}

type reserveRequest struct {
	Owner       string  `json:"owner"`
	DurationSec float64 `json:"duration_sec"`
	Immediate   bool    `json:"immediate"`
}

type deployRequest struct {
	DeploySpec domain.DeploySpec `json:"deploy_spec"`
	TimeoutSec float64           `json:"timeout_sec,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Config — конфигурация Client.
type Config struct {
	// BaseURL — адрес Slicer (default: DefaultURL).
	BaseURL string

	// HTTPClient — транспорт (default: http.Client с таймаутом 30s на запрос).
	HTTPClient *http.Client

	// PollInterval — интервал опроса статуса при wait=true (default: 10s).
	PollInterval time.Duration

	// Logger
	Logger *slog.Logger
}

// Client — HTTP-клиент для Slicer API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewClient создаёт клиент для Slicer API.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:      baseURL,
		httpClient:   httpClient,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// BaseURL возвращает адрес Slicer.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// --- SysTests ---

// CreateSysTest создаёт SysTest с заданным определением топологии.
func (c *Client) CreateSysTest(ctx context.Context, name string, def domain.TopologyDefinition, owner string) (*domain.SysTest, error) {
	req := createSysTestRequest{Name: name, Owner: owner, TopologySpec: def}
	var systest domain.SysTest
	if err := c.post(ctx, "/api/v1/systests", req, &systest); err != nil {
		return nil, err
	}
	if systest.Name == "" {
		systest.Name = name
	}
	return &systest, nil
}

// DeleteSysTest удаляет SysTest.
func (c *Client) DeleteSysTest(ctx context.Context, name string) error {
	return c.delete(ctx, systestPath(name), nil)
}

// --- Reservations ---

// ReserveResources резервирует ресурсы под SysTest.
// immediate=true — выделить сразу, иначе Slicer ставит резервирование в расписание.
func (c *Client) ReserveResources(ctx context.Context, name, owner string, duration time.Duration, immediate bool) (*domain.Reservation, error) {
	req := reserveRequest{
		Owner:       owner,
		DurationSec: duration.Seconds(),
		Immediate:   immediate,
	}
	var reservation domain.Reservation
	if err := c.post(ctx, systestPath(name)+"/reservation", req, &reservation); err != nil {
		return nil, err
	}
	if reservation.Name == "" {
		reservation.Name = name
	}
	return &reservation, nil
}

// ReleaseResources снимает резервирование.
func (c *Client) ReleaseResources(ctx context.Context, name string) error {
	return c.delete(ctx, systestPath(name)+"/reservation", nil)
}

// --- Deployments ---

// DeployTestbed разворачивает зарезервированную топологию.
//
// При wait=true блокируется, пока статус не станет терминальным
// или не истечёт timeout (ErrTimeout). DEPLOY_FAILED → ErrDeployFailed.
func (c *Client) DeployTestbed(ctx context.Context, name string, spec domain.DeploySpec, timeout time.Duration, wait bool) (*domain.Deployment, error) {
	req := deployRequest{DeploySpec: spec, TimeoutSec: timeout.Seconds()}
	var deployment domain.Deployment
	if err := c.post(ctx, systestPath(name)+"/deployment", req, &deployment); err != nil {
		return nil, err
	}
	if deployment.Name == "" {
		deployment.Name = name
	}
	deployment.DeployStatus = domain.ParseDeployStatus(string(deployment.DeployStatus))

	if !wait {
		return &deployment, nil
	}
	return c.waitDeployment(ctx, name, timeout, &deployment, domain.DeployStatusDeployed, ErrDeployFailed)
}

// UndeployTestbed сворачивает testbed.
//
// При wait=true блокируется до UNDEPLOYED или timeout (ErrTimeout).
// UNDEPLOY_FAILED → ErrUndeployFailed.
func (c *Client) UndeployTestbed(ctx context.Context, name string, timeout time.Duration, wait bool) error {
	params := url.Values{}
	if timeout > 0 {
		params.Set("timeout_sec", strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64))
	}

	var deployment domain.Deployment
	if err := c.delete(ctx, systestPath(name)+"/deployment?"+params.Encode(), &deployment); err != nil {
		return err
	}
	if deployment.Name == "" {
		deployment.Name = name
	}
	deployment.DeployStatus = domain.ParseDeployStatus(string(deployment.DeployStatus))

	if !wait {
		return nil
	}
	_, err := c.waitDeployment(ctx, name, timeout, &deployment, domain.DeployStatusUndeployed, ErrUndeployFailed)
	return err
}

// GetDeployment возвращает текущее состояние развёртывания.
func (c *Client) GetDeployment(ctx context.Context, name string) (*domain.Deployment, error) {
	var deployment domain.Deployment
	if err := c.get(ctx, systestPath(name)+"/deployment", &deployment); err != nil {
		return nil, err
	}
	if deployment.Name == "" {
		deployment.Name = name
	}
	deployment.DeployStatus = domain.ParseDeployStatus(string(deployment.DeployStatus))
	return &deployment, nil
}

// waitDeployment опрашивает статус, пока он не станет итогом запрошенного
// перехода: want или соответствующий *_FAILED. last — ответ на POST/DELETE;
// если он уже итоговый, опрос не выполняется. Терминальный статус обратного
// перехода (ответ до применения запроса) итогом не считается.
func (c *Client) waitDeployment(
	ctx context.Context,
	name string,
	timeout time.Duration,
	last *domain.Deployment,
	want domain.DeployStatus,
	failErr error,
) (*domain.Deployment, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	current := last
	for {
		if current != nil && current.DeployStatus.Completes(want) {
			return checkTerminal(current, want, failErr)
		}

		select {
		case <-ctx.Done():
			return nil, c.waitError(ctx, name, timeout, current)
		case <-ticker.C:
		}

		dep, err := c.GetDeployment(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, c.waitError(ctx, name, timeout, current)
			}
			return nil, err
		}

		c.log(ctx).Debug("deployment status",
			"systest", name,
			"status", dep.DeployStatus,
			"want", want,
		)
		current = dep
	}
}

// waitError превращает завершение контекста в ErrTimeout, если истёк
// собственный таймаут операции.
func (c *Client) waitError(ctx context.Context, name string, timeout time.Duration, last *domain.Deployment) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		status := "unknown"
		if last != nil && last.DeployStatus != "" {
			status = string(last.DeployStatus)
		}
		return fmt.Errorf("%w: %s still %s after %s", ErrTimeout, name, status, timeout)
	}
	return ctx.Err()
}

func checkTerminal(dep *domain.Deployment, want domain.DeployStatus, failErr error) (*domain.Deployment, error) {
	if dep.DeployStatus == want {
		return dep, nil
	}
	if dep.Message != "" {
		return dep, fmt.Errorf("%w: %s: status %s: %s", failErr, dep.Name, dep.DeployStatus, dep.Message)
	}
	return dep, fmt.Errorf("%w: %s: status %s", failErr, dep.Name, dep.DeployStatus)
}

// --- HTTP helpers ---

// log возвращает логгер run из контекста, если оркестратор его положил.
func (c *Client) log(ctx context.Context) *slog.Logger {
	return telemetry.FromContextOr(ctx, c.logger)
}

func systestPath(name string) string {
	return "/api/v1/systests/" + url.PathEscape(name)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doData(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.doData(ctx, http.MethodPost, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string, result any) error {
	return c.doData(ctx, http.MethodDelete, path, nil, result)
}

func (c *Client) doData(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode response: %v", ErrRequest, err)
	}

	if len(dr.Data) == 0 || string(dr.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(dr.Data, result); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrRequest, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal request: %v", ErrRequest, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrRequest, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log(ctx).Debug("slicer request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequest, method, path, err)
	}
	return resp, nil
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}

	return apiErr
}
