package e2e

import (
	"context"

	"github.com/cucumber/godog"

	"certledger/e2e/steps/common"
	"certledger/e2e/steps/registry"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^a fresh registry owned by "([^"]*)"$`, func(context.Context, string) error { return nil })
	common.RegisterSteps(ctx, tc)
	registry.RegisterSteps(ctx, tc)
}
