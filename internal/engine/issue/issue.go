// Package issue implements the engine's issue sink (spec.md §6): the
// external interface checkers report findings through, plus a JSON export
// used by cmd/seexplore and golden tests. Flow steps are a supplement
// (SPEC_FULL.md §10): a breadcrumb of the program points that contributed
// to a reported issue, e.g. where a null value was produced before it was
// dereferenced.
package issue

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/tidwall/sjson"
)

// FlowStep is one breadcrumb in an issue's explanation.
type FlowStep struct {
	Pos     cfgmodel.Position
	Message string
}

// Issue is one finding reported by a checker.
type Issue struct {
	Pos       cfgmodel.Position
	CheckerID string
	Message   string
	Flow      []FlowStep
}

func (i Issue) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", i.CheckerID, i.Pos.Line, i.Pos.Column, i.Message)
}

// Sink collects issues as checkers report them.
type Sink struct {
	issues []Issue
}

// NewSink creates an empty Sink.
func NewSink() *Sink {
	return &Sink{}
}

// Report records one issue.
func (s *Sink) Report(tree *cfgmodel.Element, checkerID, message string, flow ...FlowStep) {
	pos := cfgmodel.Position{}
	if tree != nil {
		pos = tree.Pos
	}
	s.issues = append(s.issues, Issue{Pos: pos, CheckerID: checkerID, Message: message, Flow: flow})
}

// Issues returns every issue reported so far, in report order.
func (s *Sink) Issues() []Issue {
	return s.issues
}

// JSON renders the sink's issues as a JSON array, built incrementally with
// sjson the way a streaming log line would be — rather than round-tripping
// through encoding/json's struct tags, matching how the teacher's
// internal/jsonvalue package treats JSON as a value to be assembled, not a
// struct to be marshaled.
func (s *Sink) JSON() (string, error) {
	doc := "[]"
	var err error
	for i, iss := range s.issues {
		prefix := fmt.Sprintf("%d.", i)
		doc, err = sjson.Set(doc, prefix+"line", iss.Pos.Line)
		if err != nil {
			return "", err
		}
		doc, err = sjson.Set(doc, prefix+"column", iss.Pos.Column)
		if err != nil {
			return "", err
		}
		doc, err = sjson.Set(doc, prefix+"checker", iss.CheckerID)
		if err != nil {
			return "", err
		}
		doc, err = sjson.Set(doc, prefix+"message", iss.Message)
		if err != nil {
			return "", err
		}
		for j, step := range iss.Flow {
			stepPrefix := fmt.Sprintf("%sflow.%d.", prefix, j)
			doc, err = sjson.Set(doc, stepPrefix+"line", step.Pos.Line)
			if err != nil {
				return "", err
			}
			doc, err = sjson.Set(doc, stepPrefix+"message", step.Message)
			if err != nil {
				return "", err
			}
		}
	}
	return doc, nil
}
