package types

import (
	"encoding/json"
	"time"
)

// Article is one acquired news record, optionally enriched with extracted content.
type Article struct {
	SourceID      string         `json:"source_id"      bson:"source_id"`
	SourceName    string         `json:"source_name"    bson:"source_name"`
	SearchTerm    string         `json:"search_term"    bson:"search_term"`
	Title         string         `json:"title"          bson:"title"`
	URL           string         `json:"url"            bson:"url"`
	Publisher     string         `json:"publisher"      bson:"publisher"`
	PublishedDate string         `json:"published_date" bson:"published_date"`
	Snippet       string         `json:"snippet"        bson:"snippet"`
	FetchedAt     time.Time      `json:"fetched_at"     bson:"fetched_at"`
	Metadata      map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`

	Abstract         string `json:"abstract"          bson:"abstract"`
	FullText         string `json:"full_text"         bson:"full_text"`
	MetaDescription  string `json:"meta_description"  bson:"meta_description"`
	ExtractionStatus Status `json:"extraction_status" bson:"extraction_status"`
}

// NewArticle creates an Article for a URL.
func NewArticle(url string) *Article {
	return &Article{
		URL:       url,
		FetchedAt: time.Now(),
		Metadata:  make(map[string]any),
	}
}

// ApplyExtraction merges an extraction result into the article.
func (a *Article) ApplyExtraction(r ExtractionResult) {
	a.Abstract = r.Abstract
	a.FullText = r.FullText
	a.MetaDescription = r.MetaDescription
	a.ExtractionStatus = r.Status
}

// Extracted returns true when content was extracted successfully.
func (a *Article) Extracted() bool {
	return a.ExtractionStatus.IsSuccess()
}

// CSVColumns is the column order used for flat exports.
var CSVColumns = []string{
	"search_term", "title", "link", "source", "source_id", "date", "snippet",
	"fetched_at", "abstract", "full_text", "meta_description", "extraction_status",
}

// ToFlatMap returns a flat map keyed by CSVColumns.
func (a *Article) ToFlatMap() map[string]string {
	flat := map[string]string{
		"search_term":       a.SearchTerm,
		"title":             a.Title,
		"link":              a.URL,
		"source":            a.Publisher,
		"source_id":         a.SourceID,
		"date":              a.PublishedDate,
		"snippet":           a.Snippet,
		"abstract":          a.Abstract,
		"full_text":         a.FullText,
		"meta_description":  a.MetaDescription,
		"extraction_status": string(a.ExtractionStatus),
	}
	if !a.FetchedAt.IsZero() {
		flat["fetched_at"] = a.FetchedAt.Format(time.RFC3339)
	}
	return flat
}

// ToJSON serializes the article to JSON bytes.
func (a *Article) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}

// Clone creates a deep copy of the article.
func (a *Article) Clone() *Article {
	clone := *a
	clone.Metadata = make(map[string]any, len(a.Metadata))
	for k, v := range a.Metadata {
		clone.Metadata[k] = v
	}
	return &clone
}
