// Package search keeps an Elasticsearch index of books for full-text lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

type BookIndex struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewBookIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *BookIndex {
	return &BookIndex{ES: es, Index: index, Logger: logger}
}

type bookDoc struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	AuthorID        string `json:"author_id"`
	AuthorName      string `json:"author_name"`
	PublicationYear int    `json:"publication_year"`
	UpdatedAt       string `json:"updated_at"`
}

func (x *BookIndex) IndexBook(ctx context.Context, b *entity.Book) error {
	body, err := json.Marshal(bookDoc{
		ID:              b.ID,
		Title:           b.Title,
		AuthorID:        b.AuthorID,
		AuthorName:      b.AuthorName,
		PublicationYear: b.PublicationYear,
		UpdatedAt:       b.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.Index, DocumentID: b.ID, Body: bytes.NewReader(body), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es index book: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index book: %s", res.Status())
	}
	return nil
}

func (x *BookIndex) RemoveBook(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: x.Index, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es delete book: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	// 404 means it was never indexed.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es delete book: %s", res.Status())
	}
	return nil
}

// SearchBooks runs a multi_match over title and author name and returns
// matching book ids in relevance order.
func (x *BookIndex) SearchBooks(ctx context.Context, q string, size int) ([]string, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "author_name"},
				"fuzziness": "AUTO",
			},
		},
		"size":    size,
		"_source": false,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.Index), x.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, fmt.Errorf("es search books: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search books: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	if x.Logger != nil {
		x.Logger.WithFields(logrus.Fields{"q": q, "hits": len(ids)}).Debug("es book search")
	}
	return ids, nil
}
