// Package llamacloud is a client for the LlamaCloud managed index retrieval API.
package llamacloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scholarqa/internal/domain"
	"github.com/kailas-cloud/scholarqa/internal/domain/fragment"
	"github.com/kailas-cloud/scholarqa/internal/domain/fragment/meta"
	"github.com/kailas-cloud/scholarqa/internal/metrics"
)

// DefaultBaseURL is the LlamaCloud API endpoint.
const DefaultBaseURL = "https://api.cloud.llamaindex.ai"

// Retriever queries a named, versioned LlamaCloud index. The index is
// addressed by name within a project and organization; the pipeline id
// behind the name is resolved once and reused for the process lifetime.
type Retriever struct {
	client         *http.Client
	baseURL        string
	apiKey         string
	indexName      string
	projectName    string
	organizationID string
	logger         *zap.Logger

	mu         sync.Mutex
	pipelineID string
}

// Config holds the retrieval service settings.
type Config struct {
	BaseURL        string
	APIKey         string
	IndexName      string
	ProjectName    string
	OrganizationID string
	Timeout        time.Duration
	Logger         *zap.Logger
}

// NewRetriever creates a LlamaCloud retrieval client.
func NewRetriever(cfg *Config) *Retriever {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Retriever{
		client:         &http.Client{Timeout: timeout},
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		indexName:      cfg.IndexName,
		projectName:    cfg.ProjectName,
		organizationID: cfg.OrganizationID,
		logger:         cfg.Logger,
	}
}

// pipelineInfo is the pipeline listing response item.
type pipelineInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// retrieveRequest is the retrieval endpoint request body.
type retrieveRequest struct {
	Query          string `json:"query"`
	SimilarityTopK int    `json:"dense_similarity_top_k"`
}

// retrieveResponse is the retrieval endpoint response.
type retrieveResponse struct {
	RetrievalNodes []struct {
		Node struct {
			ID       string                 `json:"id_"`
			Text     string                 `json:"text"`
			Metadata map[string]interface{} `json:"extra_info"`
		} `json:"node"`
		Score float64 `json:"score"`
	} `json:"retrieval_nodes"`
}

// Retrieve returns up to topK fragments ranked by descending score.
// The index guarantees ranking; no re-sorting happens here.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]fragment.Fragment, error) {
	pipelineID, err := r.resolvePipelineID(ctx)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(r.indexName, "error").Inc()
		return nil, err
	}

	body, err := json.Marshal(retrieveRequest{Query: query, SimilarityTopK: topK})
	if err != nil {
		return nil, fmt.Errorf("marshal retrieve request: %w", err)
	}

	endpoint := r.baseURL + "/api/v1/pipelines/" + pipelineID + "/retrieve"

	start := time.Now()
	data, err := r.post(ctx, endpoint, body)
	duration := time.Since(start)

	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(r.indexName, "error").Inc()
		return nil, err
	}

	var resp retrieveResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(r.indexName, "error").Inc()
		return nil, fmt.Errorf("decode retrieve response: %w", domain.ErrRetrievalUnavailable)
	}

	metrics.RetrievalRequestsTotal.WithLabelValues(r.indexName, "success").Inc()
	metrics.RetrievalRequestDuration.WithLabelValues(r.indexName).Observe(duration.Seconds())
	metrics.RetrievalFragmentsReturned.WithLabelValues(r.indexName).Observe(float64(len(resp.RetrievalNodes)))

	fragments := make([]fragment.Fragment, len(resp.RetrievalNodes))
	for i, n := range resp.RetrievalNodes {
		fragments[i] = fragment.Reconstruct(
			n.Node.ID, n.Node.Text, n.Score, i+1, convertMetadata(n.Node.Metadata),
		)
	}

	r.logger.Debug("retrieved fragments",
		zap.Int("requested", topK),
		zap.Int("returned", len(fragments)),
		zap.Duration("duration", duration),
	)

	return fragments, nil
}

// HealthCheck verifies API availability by resolving the pipeline id.
func (r *Retriever) HealthCheck(ctx context.Context) error {
	_, err := r.resolvePipelineID(ctx)
	return err
}

// resolvePipelineID maps the index name to its pipeline id. The id is
// immutable for the index lifetime, so the first successful lookup is cached.
func (r *Retriever) resolvePipelineID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pipelineID != "" {
		return r.pipelineID, nil
	}

	params := url.Values{}
	params.Set("pipeline_name", r.indexName)
	params.Set("project_name", r.projectName)
	params.Set("organization_id", r.organizationID)
	endpoint := r.baseURL + "/api/v1/pipelines?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build pipeline lookup: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("list pipelines: %w", domain.ErrRetrievalUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseAPIError(resp)
	}

	var pipelines []pipelineInfo
	if err := json.NewDecoder(resp.Body).Decode(&pipelines); err != nil {
		return "", fmt.Errorf("decode pipeline list: %w", domain.ErrRetrievalUnavailable)
	}
	if len(pipelines) == 0 {
		return "", fmt.Errorf("index %q not found in project %q: %w",
			r.indexName, r.projectName, domain.ErrRetrievalUnavailable)
	}

	r.pipelineID = pipelines[0].ID
	r.logger.Info("resolved index pipeline",
		zap.String("index", r.indexName),
		zap.String("pipeline_id", r.pipelineID),
	)
	return r.pipelineID, nil
}

func (r *Retriever) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build retrieve request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", domain.ErrRetrievalUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read retrieve response: %w", domain.ErrRetrievalUnavailable)
	}
	return data, nil
}

// convertMetadata maps the loosely-typed index metadata onto tagged values.
// Date-looking strings become timestamps so display formatting stays uniform.
func convertMetadata(raw map[string]interface{}) meta.Values {
	if len(raw) == 0 {
		return nil
	}
	values := make(meta.Values, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			if t, err := time.Parse("2006-01-02", val); err == nil {
				values[k] = meta.Time(t)
			} else if t, err := time.Parse(time.RFC3339, val); err == nil {
				values[k] = meta.Time(t)
			} else {
				values[k] = meta.String(val)
			}
		case float64:
			values[k] = meta.Number(val)
		case bool:
			values[k] = meta.String(strconv.FormatBool(val))
		default:
			// Nested structures are not displayable; skip them.
		}
	}
	return values
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrRetrievalUnavailable for correct
// surfacing; the credential never appears in the message.
func parseAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return fmt.Errorf("retrieval API error %d: %s: %w",
			resp.StatusCode, parsed.Detail, domain.ErrRetrievalUnavailable)
	}
	return fmt.Errorf("retrieval API error %d: %w", resp.StatusCode, domain.ErrRetrievalUnavailable)
}
