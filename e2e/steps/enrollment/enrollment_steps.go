package enrollment

import (
	"context"
	"fmt"
	"os"

	"github.com/cucumber/godog"
)

const apiPrefix = "/api/vinculacion"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	POSTWithHeaders(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetRecordID() string
	SetRecordID(id string)
	GetAccessToken() string
	SetAccessToken(token string)
}

// RegisterSteps registers pre-registration and vendor webhook steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &enrollmentSteps{tc: tc}

	ctx.Step(`^I start a pre-registration for document "([^"]*)" named "([^"]*)" issued on "([^"]*)"$`, steps.startPreRegistration)
	ctx.Step(`^I start a pre-registration without a document type$`, steps.startWithoutDocumentType)
	ctx.Step(`^I save the pre-registration id$`, steps.savePreRegistrationID)
	ctx.Step(`^I request the pre-registration detail$`, steps.requestDetail)
	ctx.Step(`^I request the pre-registration "([^"]*)"$`, steps.requestByID)
	ctx.Step(`^I request a vendor token with user "([^"]*)" and password "([^"]*)"$`, steps.requestVendorToken)
	ctx.Step(`^I request a vendor token with the configured credentials$`, steps.requestConfiguredVendorToken)
	ctx.Step(`^I save the vendor token$`, steps.saveVendorToken)
	ctx.Step(`^I send a vendor callback for case "([^"]*)" with status "([^"]*)"$`, steps.sendCallback)
	ctx.Step(`^I send a vendor callback without a token$`, steps.sendCallbackWithoutToken)
}

type enrollmentSteps struct {
	tc TestContext
}

func (s *enrollmentSteps) startPreRegistration(ctx context.Context, doc, name, issued string) error {
	return s.tc.POST(apiPrefix+"/preregistro/iniciar", map[string]any{
		"numero_cedula":     doc,
		"nombres_completos": name,
		"fecha_expedicion":  issued,
		"tipo_documento":    1,
		"agencia":           "PRINCIPAL",
	})
}

func (s *enrollmentSteps) startWithoutDocumentType(ctx context.Context) error {
	return s.tc.POST(apiPrefix+"/preregistro/iniciar", map[string]any{
		"numero_cedula":     "1032456789",
		"nombres_completos": "Ana Ruiz",
		"fecha_expedicion":  "2015-01-01",
	})
}

func (s *enrollmentSteps) savePreRegistrationID(ctx context.Context) error {
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetRecordID(fmt.Sprint(id))
	return nil
}

func (s *enrollmentSteps) requestDetail(ctx context.Context) error {
	if s.tc.GetRecordID() == "" {
		return fmt.Errorf("no pre-registration id saved")
	}
	return s.tc.GET(apiPrefix+"/preregistro/"+s.tc.GetRecordID(), nil)
}

func (s *enrollmentSteps) requestByID(ctx context.Context, id string) error {
	return s.tc.GET(apiPrefix+"/preregistro/"+id, nil)
}

func (s *enrollmentSteps) requestVendorToken(ctx context.Context, user, password string) error {
	return s.tc.POST(apiPrefix+"/decrim/token", map[string]string{"user": user, "password": password})
}

func (s *enrollmentSteps) requestConfiguredVendorToken(ctx context.Context) error {
	user, password := os.Getenv("E2E_WEBHOOK_USER"), os.Getenv("E2E_WEBHOOK_PASSWORD")
	if user == "" || password == "" {
		return godog.ErrPending
	}
	return s.requestVendorToken(ctx, user, password)
}

func (s *enrollmentSteps) saveVendorToken(ctx context.Context) error {
	token, err := s.tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	s.tc.SetAccessToken(fmt.Sprint(token))
	return nil
}

func (s *enrollmentSteps) sendCallback(ctx context.Context, caseID, status string) error {
	return s.tc.POSTWithHeaders(apiPrefix+"/decrim/webhook", map[string]string{
		"Idcaso": caseID,
		"Estado": status,
	}, map[string]string{"Authorization": "Bearer " + s.tc.GetAccessToken()})
}

func (s *enrollmentSteps) sendCallbackWithoutToken(ctx context.Context) error {
	return s.tc.POST(apiPrefix+"/decrim/webhook", map[string]string{"Idcaso": "1", "Estado": "1"})
}
