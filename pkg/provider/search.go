package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// ErrSearchFailed wraps search backend failures.
var ErrSearchFailed = errors.New("provider.errors.search_failed")

// OpenSearchIndex serves tenant search from an OpenSearch cluster.
// Each tenant gets its own index so queries never cross tenants.
type OpenSearchIndex struct {
	client *opensearch.Client
	index  string
}

// NewOpenSearchIndex builds an OpenSearch backend from its settings.
// Required settings: "addresses" (comma-separated) and "index".
// Optional: "username", "password".
func NewOpenSearchIndex(s Settings) (*OpenSearchIndex, error) {
	addresses := s.String("addresses", "")
	index := s.String("index", "")
	if addresses == "" || index == "" {
		return nil, fmt.Errorf("%w: opensearch addresses and index are required", ErrInvalidConfig)
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: strings.Split(addresses, ","),
		Username:  s.String("username", ""),
		Password:  s.String("password", ""),
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return &OpenSearchIndex{client: client, index: index}, nil
}

func (o *OpenSearchIndex) IndexDocument(ctx context.Context, id string, doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Join(ErrSearchFailed, err)
	}

	req := opensearchapi.IndexRequest{
		Index:      o.index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, o.client)
	if err != nil {
		return errors.Join(ErrSearchFailed, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("%w: index returned %s", ErrSearchFailed, resp.Status())
	}
	return nil
}

func (o *OpenSearchIndex) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}
	body, err := json.Marshal(map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"*"},
			},
		},
	})
	if err != nil {
		return nil, errors.Join(ErrSearchFailed, err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{o.index},
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, o.client)
	if err != nil {
		return nil, errors.Join(ErrSearchFailed, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("%w: search returned %s", ErrSearchFailed, resp.Status())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Score  float64        `json:"_score"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Join(ErrSearchFailed, err)
	}

	hits := make([]SearchHit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		hits = append(hits, SearchHit{ID: h.ID, Score: h.Score, Source: h.Source})
	}
	return hits, nil
}

// RegisterSearchBackends installs the built-in search factories.
func RegisterSearchBackends(r *Registry) {
	r.Register(CapabilitySearch, "opensearch", func(s Settings) (any, error) {
		return NewOpenSearchIndex(s)
	})
}
