package awhere

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// JobsService runs batches of GET requests server side, for pulling many
// fields or long ranges without issuing hundreds of individual calls.
// Scheduling and retrying jobs is up to the caller.
type JobsService service

// JobRequest names one API call inside a batch job. API is the literal
// request line, e.g. "GET /v2/fields/field-a".
type JobRequest struct {
	Title string `json:"title"`
	API   string `json:"api"`
}

// JobResult carries the outcome of one request in a finished job. Payload
// is the raw response body, ready for ParseTable or json.Unmarshal.
type JobResult struct {
	Title      string          `json:"title"`
	API        string          `json:"api,omitempty"`
	StatusCode int             `json:"statusCode"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Job is an asynchronous batch of API calls.
type Job struct {
	ID      string      `json:"jobId"`
	Type    string      `json:"type,omitempty"`
	Status  string      `json:"status,omitempty"`
	Results []JobResult `json:"results,omitempty"`
}

// Done reports whether the job has finished processing.
func (j *Job) Done() bool {
	return strings.EqualFold(j.Status, "done")
}

// Create submits a batch job. Only GET requests can be batched.
func (s *JobsService) Create(ctx context.Context, title string, requests []JobRequest) (*Job, error) {
	if len(requests) == 0 {
		return nil, &ValidationError{Param: "requests", Reason: "must not be empty"}
	}
	for _, r := range requests {
		if !strings.HasPrefix(r.API, "GET ") {
			return nil, &ValidationError{Param: "requests", Reason: fmt.Sprintf("%q is not a GET request", r.API)}
		}
	}

	payload := struct {
		Type     string       `json:"type"`
		Title    string       `json:"title,omitempty"`
		Requests []JobRequest `json:"requests"`
	}{Type: "batch", Title: title, Requests: requests}

	body, err := s.client.Do(ctx, &Request{Method: http.MethodPost, Path: "/v2/jobs", Body: payload})
	if err != nil {
		return nil, err
	}
	var job Job
	if err := decode(body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Get polls a job. Results are populated once the job reports done.
func (s *JobsService) Get(ctx context.Context, jobID string) (*Job, error) {
	if jobID == "" {
		return nil, &ValidationError{Param: "jobId", Reason: "must not be empty"}
	}
	var job Job
	if err := s.client.getJSON(ctx, "/v2/jobs/"+jobID, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
