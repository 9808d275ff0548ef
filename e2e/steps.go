package e2e

import (
	"github.com/cucumber/godog"

	"vinculacion/e2e/steps/common"
	"vinculacion/e2e/steps/enrollment"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Generic requests and response assertions
	common.RegisterSteps(ctx, tc)

	// Pre-registration, vendor token and webhook steps
	enrollment.RegisterSteps(ctx, tc)
}
