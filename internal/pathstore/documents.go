package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DocumentsPrefix is the root key of published analysis results.
const DocumentsPrefix = "documents"

// DocumentMeta is the summary stored next to each published result.
type DocumentMeta struct {
	DocID       string `json:"doc_id"`
	Filename    string `json:"filename"`
	Title       string `json:"title,omitempty"`
	ContentHash string `json:"content_hash"`
	Sections    int    `json:"sections"`
	Tables      int    `json:"tables"`
	SubTables   int    `json:"sub_tables"`
	OracleCalls int    `json:"oracle_calls"`
	PublishedAt string `json:"published_at"`
}

// ResultKey is where the full result of docID is stored.
func ResultKey(docID string) string { return DocumentsPrefix + "/" + docID + "/result" }

// MetaKey is where the summary of docID is stored.
func MetaKey(docID string) string { return DocumentsPrefix + "/" + docID + "/meta" }

// PublishResult stores result and then its meta. The meta is written last so
// a listed document always has a result.
func (c *Client) PublishResult(ctx context.Context, meta DocumentMeta, result any) error {
	if meta.DocID == "" {
		return fmt.Errorf("publish result: empty doc id")
	}
	if err := c.PutNode(ctx, ResultKey(meta.DocID), NodeRequest{
		Value:      result,
		MemoryType: "document",
		Source:     "docoutline:" + meta.DocID,
	}); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	if err := c.PutNode(ctx, MetaKey(meta.DocID), NodeRequest{
		Value:      meta,
		MemoryType: "metacognitive",
		Salience:   0.1,
		Source:     "docoutline:" + meta.DocID,
	}); err != nil {
		return fmt.Errorf("publish meta: %w", err)
	}
	return nil
}

// ListDocuments returns the meta of every published document.
func (c *Client) ListDocuments(ctx context.Context, limit int) ([]DocumentMeta, error) {
	nodes, err := c.ListChildren(ctx, DocumentsPrefix, limit)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentMeta, 0, len(nodes))
	for _, n := range nodes {
		if !strings.HasSuffix(n.Key, "/meta") {
			continue
		}
		var m DocumentMeta
		if err := json.Unmarshal(n.Value, &m); err != nil {
			return nil, fmt.Errorf("decode meta %s: %w", n.Key, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// GetResult returns the raw published result of docID, or nil when absent.
func (c *Client) GetResult(ctx context.Context, docID string) (json.RawMessage, error) {
	node, err := c.GetNode(ctx, ResultKey(docID))
	if err != nil || node == nil {
		return nil, err
	}
	return node.Value, nil
}

// DeleteDocument removes docID's result and meta.
func (c *Client) DeleteDocument(ctx context.Context, docID string) error {
	return c.DeleteNode(ctx, DocumentsPrefix+"/"+docID, true)
}
