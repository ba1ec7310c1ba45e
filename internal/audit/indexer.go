// internal/audit/indexer.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/rkbisoi/applus-backend-demo/internal/common/database"
	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

// Indexer mirrors audit entries into Elasticsearch for search and dashboards.
// The store stays the source of truth; indexing failures are logged and
// dropped. A nil indexer is valid and skips mirroring entirely.
type Indexer struct {
	client *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewIndexer(client *database.ElasticsearchClient, index string, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: log,
	}
}

// Index mirrors one entry, keyed by its log ID.
func (i *Indexer) Index(ctx context.Context, entry *models.AuditEntry) {
	if i == nil || i.client == nil {
		return
	}

	doc, err := json.Marshal(entry)
	if err != nil {
		return
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: entry.LogID,
		Body:       bytes.NewReader(doc),
	}
	res, err := req.Do(ctx, i.client.Client)
	if err != nil {
		i.logger.Warn("Audit index request failed", map[string]interface{}{
			"log_id": entry.LogID,
			"error":  err.Error(),
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		i.logger.Warn("Audit index rejected entry", map[string]interface{}{
			"log_id": entry.LogID,
			"status": res.Status(),
		})
	}
}
