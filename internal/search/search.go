package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/pulseo/internal/models"
)

// Index is the full-text side of task storage. The database stays the source
// of truth; the index only resolves queries to task ids.
type Index interface {
	IndexTask(ctx context.Context, task models.Task) error
	RemoveTask(ctx context.Context, id uuid.UUID) error
	SearchTasks(ctx context.Context, userID uuid.UUID, query string, from, size int) (int64, []uuid.UUID, error)
}

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

type ESIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewESIndex(es *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{es: es, index: index}
}

var taskMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"user_id":     map[string]any{"type": "keyword"},
			"title":       map[string]any{"type": "text"},
			"description": map[string]any{"type": "text"},
			"status":      map[string]any{"type": "keyword"},
			"updated_at":  map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex creates the task index with its mapping if it does not exist.
func (x *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := encode(taskMapping)
	if err != nil {
		return err
	}
	res, err = x.es.Indices.Create(x.index, x.es.Indices.Create.WithBody(body), x.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && !strings.Contains(readAll(res.Body), "resource_already_exists_exception") {
		return fmt.Errorf("create index: %s", res.Status())
	}
	return nil
}

type taskDoc struct {
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (x *ESIndex) IndexTask(ctx context.Context, task models.Task) error {
	doc := taskDoc{
		UserID:    task.UserID.String(),
		Title:     task.Title,
		Status:    task.Status,
		UpdatedAt: task.UpdatedAt,
	}
	if task.Description != nil {
		doc.Description = *task.Description
	}

	body, err := encode(doc)
	if err != nil {
		return err
	}

	res, err := x.es.Index(x.index, body,
		x.es.Index.WithDocumentID(task.ID.String()),
		x.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index task: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index task: %s", res.Status())
	}
	return nil
}

func (x *ESIndex) RemoveTask(ctx context.Context, id uuid.UUID) error {
	res, err := x.es.Delete(x.index, id.String(), x.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("remove task: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove task: %s", res.Status())
	}
	return nil
}

func (x *ESIndex) SearchTasks(ctx context.Context, userID uuid.UUID, query string, from, size int) (int64, []uuid.UUID, error) {
	body, err := encode(map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"title^2", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"user_id": userID.String()},
				},
			},
		},
		"_source": false,
		"from":    from,
		"size":    size,
	})
	if err != nil {
		return 0, nil, err
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(body),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search tasks: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search tasks: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}

func encode(v any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return &buf, nil
}

func readAll(r io.Reader) string {
	b, _ := io.ReadAll(r)
	return string(b)
}
