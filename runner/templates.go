package runner

import (
	"fmt"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// PromptChain builds a linear workflow that compiles each template in
// order. Step IDs are chain-0, chain-1, ... so later templates can refer
// to earlier renders through {{chain-N}} context variables.
func PromptChain(id, name string, templateIDs ...string) (*workflow.Definition, error) {
	b := workflow.NewBuilder(id, name)
	for i, templateID := range templateIDs {
		stepID := fmt.Sprintf("chain-%d", i)
		b.AddPromptStep(stepID, fmt.Sprintf("Compile %s", templateID), templateID, nil)
	}
	return b.Build()
}

// FetchTransform builds a two-step workflow: an HTTP GET followed by an
// expression transform over the response. The transform reads the fetch
// step's output and binds its result under outputVar.
func FetchTransform(id, name, endpoint, expression, outputVar string) (*workflow.Definition, error) {
	return workflow.NewBuilder(id, name).
		AddAPICallStep("fetch", "Fetch", endpoint, "GET", nil, nil, "").
		AddTransformStep("transform", "Transform", expression, "fetch", outputVar).
		Build()
}

// ConditionalFetch builds a workflow that fetches from an endpoint only
// when the expression holds, then runs the transform. The fetch executes
// inside the gate's true branch; a false gate skips it entirely.
func ConditionalFetch(id, name, expression, endpoint, transformExpr string) (*workflow.Definition, error) {
	return workflow.NewBuilder(id, name).
		AddConditionStep("gate", "Gate", expression, "fetch", "").
		AddAPICallStep("fetch", "Fetch", endpoint, "GET", nil, nil, "").
		AddTransformStep("finish", "Finish", transformExpr, "", "").
		Build()
}
