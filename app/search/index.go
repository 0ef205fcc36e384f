// Package search keeps a bleve full-text index over posts.
package search

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lostfound/app/models"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Index wraps a Bleve search index
type Index struct {
	index bleve.Index
}

// indexedPost is the searchable projection of a post
type indexedPost struct {
	ID          string
	Kind        string
	Status      string
	Title       string
	Description string
	Category    string
	Location    string
	Faculty     string
}

// Hit is one search result
type Hit struct {
	ID    string
	Score float64
}

// Open opens or creates a Bleve index at path
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{index: idx}, nil
}

// NewMemOnly creates an index that lives only in memory
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()

	// Titles and descriptions are free English text
	englishFieldMapping := bleve.NewTextFieldMapping()
	englishFieldMapping.Analyzer = "en"

	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("ID", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("Kind", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("Status", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("Title", englishFieldMapping)
	docMapping.AddFieldMappingsAt("Description", englishFieldMapping)
	docMapping.AddFieldMappingsAt("Category", textFieldMapping)
	docMapping.AddFieldMappingsAt("Location", textFieldMapping)
	docMapping.AddFieldMappingsAt("Faculty", textFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

func project(post *models.Post) *indexedPost {
	return &indexedPost{
		ID:          post.ID,
		Kind:        string(post.Kind),
		Status:      string(post.Status),
		Title:       post.Title,
		Description: post.Description,
		Category:    post.Category,
		Location:    post.Location,
		Faculty:     post.Faculty,
	}
}

// Close closes the index
func (i *Index) Close() error {
	return i.index.Close()
}

// IndexPost adds or replaces a post in the index
func (i *Index) IndexPost(post *models.Post) error {
	return i.index.Index(post.ID, project(post))
}

// Delete removes a post from the index
func (i *Index) Delete(id string) error {
	return i.index.Delete(id)
}

// Search runs a query string query and returns post IDs by relevance
func (i *Index) Search(queryStr string, limit int) ([]Hit, error) {
	queryStr = strings.TrimSpace(queryStr)
	if queryStr == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query := bleve.NewQueryStringQuery(queryStr)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		hits = append(hits, Hit{ID: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

// Rebuild indexes every post in one batch
func (i *Index) Rebuild(posts []*models.Post) error {
	batch := i.index.NewBatch()
	for _, post := range posts {
		if err := batch.Index(post.ID, project(post)); err != nil {
			return fmt.Errorf("batch index %s: %w", post.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Count returns the number of posts in the index
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
