package vector

import (
	"context"
	"fmt"
	"net/http"
)

// Input types accepted by the embed endpoint.
const (
	InputQuery   = "query"
	InputPassage = "passage"
)

// maxEmbedBatch is the number of inputs the hosted models accept per call.
const maxEmbedBatch = 96

type embedRequest struct {
	Model      string         `json:"model"`
	Parameters map[string]any `json:"parameters"`
	Inputs     []embedInput   `json:"inputs"`
}

type embedInput struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Data []struct {
		Values []float32 `json:"values"`
	} `json:"data"`
}

// Embed returns one vector per text using the hosted inference model.
func (c *Client) Embed(ctx context.Context, inputType string, texts ...string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		batch := texts[start:min(start+maxEmbedBatch, len(texts))]

		in := embedRequest{
			Model: c.cfg.EmbedModel,
			Parameters: map[string]any{
				"input_type": inputType,
				"dimension":  c.cfg.Dimension,
				"truncate":   "END",
			},
			Inputs: make([]embedInput, len(batch)),
		}
		for i, t := range batch {
			in.Inputs[i] = embedInput{Text: t}
		}

		var resp embedResponse
		if err := c.do(ctx, http.MethodPost, c.controlURL("/embed"), in, &resp); err != nil {
			return nil, err
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("%w: %d embeddings for %d inputs", ErrUpstream, len(resp.Data), len(batch))
		}
		for _, d := range resp.Data {
			if len(d.Values) != c.cfg.Dimension {
				return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(d.Values), c.cfg.Dimension)
			}
			out = append(out, d.Values)
		}
	}
	return out, nil
}
