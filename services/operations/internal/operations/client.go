package operations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
)

const DefaultHTTPTimeout = 10 * time.Second

// OrderStore is the order service as seen by the dashboard.
type OrderStore interface {
	ListTables(ctx context.Context, boothID int64) ([]Table, error)
	LatestVisitOrderIDs(ctx context.Context, tableID int64) ([]int64, error)
	GetOrderDetail(ctx context.Context, orderID int64) (*OrderDetail, error)
	SetOrderStatus(ctx context.Context, orderID int64, status string) (string, error)
	CloseVisit(ctx context.Context, tableID int64) (bool, error)
}

// OrderStoreClient implements OrderStore over the order service REST API.
// Every call shares one timeout and none is retried.
type OrderStoreClient struct {
	http    *apt.HTTPClient
	baseURL string
	logger  apt.Logger
}

func NewOrderStoreClient(baseURL string, timeout time.Duration, logger apt.Logger) (*OrderStoreClient, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if baseURL == "" {
		return nil, fmt.Errorf("services.order.url not configured")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid order service url: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	baseURL = strings.TrimRight(baseURL, "/")

	return &OrderStoreClient{
		http: &apt.HTTPClient{
			BaseURL:    baseURL,
			HTTPClient: &http.Client{Timeout: timeout},
			MaxRetries: 0,
		},
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

func (c *OrderStoreClient) ListTables(ctx context.Context, boothID int64) ([]Table, error) {
	var tables []Table
	path := fmt.Sprintf("/booths/%d/tables", boothID)
	if err := c.do(ctx, http.MethodGet, path, nil, &tables); err != nil {
		return nil, notFoundAs(err, "booth", boothID)
	}
	if tables == nil {
		tables = []Table{}
	}
	return tables, nil
}

func (c *OrderStoreClient) LatestVisitOrderIDs(ctx context.Context, tableID int64) ([]int64, error) {
	var payload struct {
		OrderIDs []int64 `json:"orderIds"`
	}
	path := fmt.Sprintf("/tables/%d/visits/latest/orders", tableID)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, notFoundAs(err, "table", tableID)
	}
	if payload.OrderIDs == nil {
		return []int64{}, nil
	}
	return payload.OrderIDs, nil
}

func (c *OrderStoreClient) GetOrderDetail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	var detail OrderDetail
	path := fmt.Sprintf("/orders/%d", orderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &detail); err != nil {
		return nil, notFoundAs(err, "order", orderID)
	}
	return &detail, nil
}

// SetOrderStatus writes the status and returns the one the order service
// stored. A 400 means the service rejected the status value.
func (c *OrderStoreClient) SetOrderStatus(ctx context.Context, orderID int64, status string) (string, error) {
	body := map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	}
	var payload struct {
		OrderID int64  `json:"orderId"`
		Status  string `json:"status"`
	}

	path := fmt.Sprintf("/manager/orders/%d/status/%s", orderID, url.PathEscape(status))
	if err := c.do(ctx, http.MethodPost, path, body, &payload); err != nil {
		var te *TransportError
		if errors.As(err, &te) && te.StatusCode == http.StatusBadRequest {
			return "", &InvalidStatusError{Status: status}
		}
		return "", notFoundAs(err, "order", orderID)
	}
	return payload.Status, nil
}

// CloseVisit clears the table. closed is false when no visit was open.
func (c *OrderStoreClient) CloseVisit(ctx context.Context, tableID int64) (bool, error) {
	body := map[string]interface{}{
		"tableId": tableID,
	}
	var payload struct {
		TableID int64 `json:"tableId"`
		Closed  bool  `json:"closed"`
	}

	path := fmt.Sprintf("/manager/tables/%d/close-visit", tableID)
	if err := c.do(ctx, http.MethodPost, path, body, &payload); err != nil {
		return false, notFoundAs(err, "table", tableID)
	}
	return payload.Closed, nil
}

// do sends the request through the apt client and decodes the data member of
// the response envelope into dest. Failed requests are never retried; any
// failure comes back as a TransportError, carrying the status code when the
// order service answered.
func (c *OrderStoreClient) do(ctx context.Context, method, path string, body, dest interface{}) error {
	op := method + " " + path

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	var err error
	switch method {
	case http.MethodGet:
		err = c.http.Get(ctx, path, &wrapper)
	case http.MethodPost:
		err = c.http.Post(ctx, path, body, &wrapper)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		var httpErr *apt.HTTPError
		if errors.As(err, &httpErr) {
			c.logger.Debug("order service rejected request", "op", op, "status", httpErr.StatusCode)
			return &TransportError{Op: op, StatusCode: httpErr.StatusCode, Err: errorMessage(httpErr.Message)}
		}
		return &TransportError{Op: op, Err: err}
	}

	if dest == nil || len(wrapper.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(wrapper.Data, dest); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

// errorMessage pulls the message out of an error body. It accepts the apt
// error envelope and a bare {"error": "..."} body.
func errorMessage(raw string) error {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil && len(envelope.Error) > 0 {
		var payload apt.ErrorPayload
		if err := json.Unmarshal(envelope.Error, &payload); err == nil && payload.Message != "" {
			return errors.New(payload.Message)
		}
		var msg string
		if err := json.Unmarshal(envelope.Error, &msg); err == nil && msg != "" {
			return errors.New(msg)
		}
	}
	if msg := strings.TrimSpace(raw); msg != "" {
		return errors.New(msg)
	}
	return errors.New("empty response")
}

func notFoundAs(err error, resource string, id int64) error {
	var te *TransportError
	if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return err
}
