package vector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// IndexModel describes an index as returned by the control plane.
type IndexModel struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type createIndexRequest struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      indexSpec `json:"spec"`
}

type indexSpec struct {
	Serverless serverlessSpec `json:"serverless"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

// DescribeIndex returns ErrIndexNotFound when the index does not exist.
func (c *Client) DescribeIndex(ctx context.Context, name string) (*IndexModel, error) {
	var out IndexModel
	if err := c.do(ctx, http.MethodGet, c.controlURL("/indexes/"+url.PathEscape(name)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateIndex creates a serverless index using the configured dimension,
// metric, cloud and region.
func (c *Client) CreateIndex(ctx context.Context, name string) (*IndexModel, error) {
	in := createIndexRequest{
		Name:      name,
		Dimension: c.cfg.Dimension,
		Metric:    c.cfg.Metric,
		Spec:      indexSpec{Serverless: serverlessSpec{Cloud: c.cfg.Cloud, Region: c.cfg.Region}},
	}
	var out IndexModel
	if err := c.do(ctx, http.MethodPost, c.controlURL("/indexes"), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteIndex removes an index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	err := c.do(ctx, http.MethodDelete, c.controlURL("/indexes/"+url.PathEscape(name)), nil, nil)
	if errors.Is(err, ErrIndexNotFound) {
		return nil
	}
	return err
}

// WaitReady polls the index until it reports ready or ctx ends.
func (c *Client) WaitReady(ctx context.Context, name string, every time.Duration) (*IndexModel, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		idx, err := c.DescribeIndex(ctx, name)
		if err != nil && !errors.Is(err, ErrIndexNotFound) {
			return nil, err
		}
		if err == nil && idx.Status.Ready && idx.Host != "" {
			return idx, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-ticker.C:
		}
	}
}
