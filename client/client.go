// Package client is a typed HTTP client for the mediator API, plus the optimistic view model front ends build on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/tradepost/go-mediation/common/api"
	"github.com/tradepost/go-mediation/models"
)

// ErrApi is returned for non-transition calls the server rejected.
var ErrApi = errors.New("mediator api error")

type Client struct {
	baseUrl    string
	actorId    string
	httpClient *http.Client
}

func New(baseUrl, actorId string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: models.DefaultRpcWaitTime}
	}
	return &Client{strings.TrimSuffix(baseUrl, "/"), actorId, httpClient}
}

func (c Client) Create(ctx context.Context, payload models.RequestPayload) (*models.MediationRequest, error) {
	req := new(models.MediationRequest)
	if err := c.call(ctx, http.MethodPost, "/v1/requests", payload, http.StatusCreated, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (c Client) Get(ctx context.Context, requestId string) (*models.RequestDetail, error) {
	detail := new(models.RequestDetail)
	if err := c.call(ctx, http.MethodGet, "/v1/requests/"+url.PathEscape(requestId), nil, http.StatusOK, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// Transition never returns an error. Transport failures come back as Timeout or Unknown outcomes so callers branch on
// ErrorKind alone.
func (c Client) Transition(ctx context.Context, requestId string, action models.Action, claimantId string) models.Outcome {
	body := map[string]string{"action": string(action)}
	if len(claimantId) > 0 {
		body["claimantId"] = claimantId
	}
	resp, err := c.do(ctx, http.MethodPost, "/v1/requests/"+url.PathEscape(requestId)+"/transitions", body)
	if err != nil {
		return transportOutcome(err)
	}
	defer resp.Body.Close()

	outcome := models.Outcome{}
	if err = json.NewDecoder(resp.Body).Decode(&outcome); err != nil || (!outcome.Success && len(outcome.ErrorKind) == 0) {
		// Not an outcome, e.g. a 400 from input validation
		return models.Failed(kindForStatus(resp.StatusCode), fmt.Sprintf("unexpected response: %s", resp.Status))
	}
	return outcome
}

func (c Client) call(ctx context.Context, method, path string, body any, expectedStatus int, dst any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", models.ErrRequestNotFound, strings.TrimSpace(string(msg)))
		}
		return fmt.Errorf("%w: %s: %s", ErrApi, resp.Status, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (c Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set(api.Header_ActorId, c.actorId)
	return c.httpClient.Do(req)
}

func transportOutcome(err error) models.Outcome {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return models.Failed(models.ErrorKind_Timeout, models.OutcomeMsg_Timeout)
	}
	return models.Failed(models.ErrorKind_Unknown, err.Error())
}

func kindForStatus(status int) models.ErrorKind {
	switch status {
	case http.StatusNotFound:
		return models.ErrorKind_NotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.ErrorKind_Unauthorized
	case http.StatusConflict:
		return models.ErrorKind_Conflict
	case http.StatusGatewayTimeout:
		return models.ErrorKind_Timeout
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return models.ErrorKind_InvalidTransition
	default:
		return models.ErrorKind_Unknown
	}
}
