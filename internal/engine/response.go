package engine

import (
	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/problem"
)

// Response is the bit-exact response shape of §6: "errors" before "data"
// when both are present, omitted entirely when absent.
type Response struct {
	Errors []ErrorResponse `json:"errors,omitempty"`
	Data   cursor.Json     `json:"data,omitempty"`
}

// ErrorResponse is one serialized Problem.
type ErrorResponse struct {
	Message   string             `json:"message"`
	Locations []LocationResponse `json:"locations,omitempty"`
	Path      []string           `json:"path,omitempty"`
}

type LocationResponse struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// MkResponse builds the final response map: {"data": D} when data is
// present with no errors, {"errors": [...], "data": D} when both are
// present, {"errors": [...]} when only errors, and the synthetic
// "Invalid query" error when neither is present.
func MkResponse(data cursor.Json, hasData bool, probs problem.Chain) map[string]any {
	out := map[string]any{}
	if len(probs) > 0 {
		errs := make([]ErrorResponse, len(probs))
		for i, p := range probs {
			errs[i] = toErrorResponse(p)
		}
		out["errors"] = errs
	}
	if hasData {
		out["data"] = data
	}
	if !hasData && len(probs) == 0 {
		out["errors"] = []ErrorResponse{{Message: "Invalid query"}}
	}
	return out
}

func toErrorResponse(p problem.Problem) ErrorResponse {
	er := ErrorResponse{Message: p.Message, Path: p.Path}
	for _, l := range p.Locations {
		er.Locations = append(er.Locations, LocationResponse{Line: l.Line, Column: l.Column})
	}
	return er
}
