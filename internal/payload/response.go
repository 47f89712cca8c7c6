package payload

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
)

// ImportResponse is the backend's answer to either import request.
type ImportResponse struct {
	Success int           `json:"success" validate:"min=0"`
	Failed  int           `json:"failed" validate:"min=0"`
	Errors  []ImportError `json:"errors" validate:"dive"`
	BatchID string        `json:"batchId"`
}

// ImportError names a file the backend rejected.
type ImportError struct {
	Filename string `json:"filename" validate:"required"`
	Error    string `json:"error"`
}

// NewBatchID returns a fresh batch identifier.
func NewBatchID() string {
	return uuid.NewString()
}

// Decode reads an ImportResponse and checks its counts.
func Decode(r io.Reader) (*ImportResponse, error) {
	var resp ImportResponse
	dec := json.NewDecoder(r)
	if err := dec.Decode(&resp); err != nil {
		return nil, eris.Wrap(err, "payload: decode import response")
	}
	if err := scorecard.Validator().Struct(resp); err != nil {
		return nil, eris.Wrap(err, "payload: invalid import response")
	}
	if resp.BatchID != "" {
		if _, err := uuid.Parse(resp.BatchID); err != nil {
			return nil, eris.Wrapf(err, "payload: batch id %q", resp.BatchID)
		}
	}
	return &resp, nil
}

// OK reports whether every file was accepted.
func (r *ImportResponse) OK() bool {
	return r.Failed == 0 && len(r.Errors) == 0
}

// String summarises the response for logs.
func (r *ImportResponse) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "batch %s: %d imported, %d failed", r.BatchID, r.Success, r.Failed)
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "\n  %s: %s", e.Filename, e.Error)
	}
	return b.String()
}
