package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/candorlabs/relaypay/types"
)

// StatusClient fetches job status from the paid API's status endpoint.
type StatusClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStatusClient builds a fetcher against {baseURL}/jobs/{id}.
func NewStatusClient(baseURL string, httpClient *http.Client) *StatusClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &StatusClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

var _ StatusFetcher = (*StatusClient)(nil)

// FetchJob reads the job resource once. A 404 or a body without a status
// field means the job does not exist.
func (c *StatusClient) FetchJob(ctx context.Context, jobID string) (*types.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch job %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, types.NewError(types.ErrJobNotFound, "job "+jobID+" not found")
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read job %s status: %w", jobID, err)
	}

	var job types.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job %s status: %w", jobID, err)
	}
	if job.Status == "" {
		return nil, types.NewError(types.ErrJobNotFound, "job "+jobID+" has no status")
	}
	job.ID = jobID

	return &job, nil
}
