// Package api exposes the orchestrator's four operations as plain Go
// methods with the exact request/response shapes an HTTP binding would
// use, so that binding is a thin adapter with no business logic of its
// own.
package api

import (
	"github.com/sgr-genai/orchestrator/discovery"
	"github.com/sgr-genai/orchestrator/job"
)

// SubmitResponse mirrors the 202 Accepted body of POST
// /api/workflows/submit/{workflowId}.
type SubmitResponse struct {
	JobID  string  `json:"jobId"`
	Status string  `json:"status"`
	Result *string `json:"result"`
}

// StatusResponse mirrors the body of GET /api/workflows/status/{jobId}.
type StatusResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
	Result string `json:"result"`
}

type Submitter interface {
	Submit(workflowID, initialInput string) (string, error)
	Get(jobID string) job.Record
}

// API wires the Dispatcher and Discovery service into the operation set an
// HTTP handler layer would call directly.
type API struct {
	dispatcher Submitter
	discovery  *discovery.Service
}

func New(dispatcher Submitter, disco *discovery.Service) *API {
	return &API{dispatcher: dispatcher, discovery: disco}
}

// Submit starts workflowID asynchronously with initialInput and returns the
// PENDING job immediately.
func (a *API) Submit(workflowID, initialInput string) (SubmitResponse, error) {
	jobID, err := a.dispatcher.Submit(workflowID, initialInput)
	if err != nil {
		return SubmitResponse{}, err
	}
	return SubmitResponse{JobID: jobID, Status: string(job.StatusPending), Result: nil}, nil
}

// Status returns the current state of jobID. An unknown id comes back as
// a synthetic FAILED record, never an error — matching the "unknown jobId
// returns a synthetic FAILED record, not 404" contract.
func (a *API) Status(jobID string) StatusResponse {
	rec := a.dispatcher.Get(jobID)
	return StatusResponse{JobID: rec.ID, Status: string(rec.Status), Result: rec.Result}
}

func (a *API) DiscoverAgents() []discovery.AgentSummary {
	return a.discovery.Agents()
}

func (a *API) DiscoverWorkflows() []discovery.WorkflowSummary {
	return a.discovery.Workflows()
}
