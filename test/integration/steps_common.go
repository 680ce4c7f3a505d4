package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/directus"
	"github.com/directus-ops/cmsctl/pkg/journal"
	"github.com/directus-ops/cmsctl/pkg/plan"
	"github.com/directus-ops/cmsctl/pkg/plan/executor"
	"github.com/directus-ops/cmsctl/pkg/snapshot"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	client       *directus.Client
	result       *executor.Result
	applyErr     error
	response     *http.Response
	responseBody []byte
	diag         *DiagServer
	token        string
	snapshot     directus.Snapshot
	events       []audit.Event
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.ResetJournal()
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if s.diag != nil {
			s.diag.Stop()
		}
		return ctx, nil
	})

	// Background steps
	sc.Step(`^a Directus instance is running$`, s.aDirectusInstanceIsRunning)
	sc.Step(`^I am logged in as the admin$`, s.iAmLoggedInAsTheAdmin)

	// Authentication steps
	sc.Step(`^I log in with the password "([^"]*)"$`, s.iLogInWithThePassword)
	sc.Step(`^the login should be rejected$`, s.theLoginShouldBeRejected)
	sc.Step(`^I generate a static token$`, s.iGenerateAStaticToken)
	sc.Step(`^the static token should authenticate as the admin$`, s.theStaticTokenShouldAuthenticate)

	// Plan steps
	sc.Step(`^I apply the bundled plan "([^"]*)"$`, s.iApplyTheBundledPlan)
	sc.Step(`^I apply the bundled plan "([^"]*)" as a dry run$`, s.iApplyTheBundledPlanAsADryRun)
	sc.Step(`^I apply the bundled plan "([^"]*)" with force$`, s.iApplyTheBundledPlanWithForce)
	sc.Step(`^the following plan has been applied:$`, s.theFollowingPlanHasBeenApplied)
	sc.Step(`^I apply the following plan:$`, s.iApplyTheFollowingPlan)
	sc.Step(`^the run status should be "([^"]*)"$`, s.theRunStatusShouldBe)
	sc.Step(`^no step should have failed$`, s.noStepShouldHaveFailed)
	sc.Step(`^no step should have been applied$`, s.noStepShouldHaveBeenApplied)
	sc.Step(`^step (\d+) should be "([^"]*)"$`, s.stepShouldBe)
	sc.Step(`^the apply should fail with "([^"]*)"$`, s.theApplyShouldFailWith)

	// CMS state steps
	sc.Step(`^the collection "([^"]*)" should exist$`, s.theCollectionShouldExist)
	sc.Step(`^the collection "([^"]*)" should not exist$`, s.theCollectionShouldNotExist)
	sc.Step(`^the field "([^"]*)" should exist in "([^"]*)"$`, s.theFieldShouldExistIn)
	sc.Step(`^I fetch a schema snapshot$`, s.iFetchASchemaSnapshot)
	sc.Step(`^the snapshot should contain the collection "([^"]*)"$`, s.theSnapshotShouldContainTheCollection)

	// Journal steps
	sc.Step(`^the journal should have (\d+) "([^"]*)" runs? of "([^"]*)"$`, s.theJournalShouldHaveRuns)
	sc.Step(`^the journal should have (\d+) steps? for the last run$`, s.theJournalShouldHaveStepsForTheLastRun)

	// Diagnostic server steps
	sc.Step(`^the diagnostic server is running$`, s.theDiagnosticServerIsRunning)
	sc.Step(`^I request "([^"]*)" from the diagnostic server$`, s.iRequestFromTheDiagnosticServer)
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response JSON "([^"]*)" should be "([^"]*)"$`, s.theResponseJSONShouldBe)
}

// Background steps

func (s *StepsContext) aDirectusInstanceIsRunning() error {
	// Directus is already running via TestContext
	return nil
}

func (s *StepsContext) iAmLoggedInAsTheAdmin() error {
	s.client = directus.New(s.tc.DirectusURL)
	_, err := s.client.Login(context.Background(), adminEmail, adminPassword)
	return err
}

// Authentication steps

func (s *StepsContext) iLogInWithThePassword(password string) error {
	s.client = directus.New(s.tc.DirectusURL)
	_, s.applyErr = s.client.Login(context.Background(), adminEmail, password)
	return nil
}

func (s *StepsContext) theLoginShouldBeRejected() error {
	if s.applyErr == nil {
		return fmt.Errorf("expected login to fail")
	}
	if !directus.IsUnauthorized(s.applyErr) {
		return fmt.Errorf("expected 401, got %v", s.applyErr)
	}
	return nil
}

func (s *StepsContext) iGenerateAStaticToken() error {
	ctx := context.Background()
	me, err := s.client.Me(ctx)
	if err != nil {
		return err
	}
	s.token = "integration-" + me.ID
	_, err = s.client.UpdateUser(ctx, me.ID, map[string]interface{}{"token": s.token})
	return err
}

func (s *StepsContext) theStaticTokenShouldAuthenticate() error {
	client := directus.New(s.tc.DirectusURL, directus.WithToken(s.token))
	me, err := client.Me(context.Background())
	if err != nil {
		return err
	}
	if me.Email != adminEmail {
		return fmt.Errorf("expected %s, got %s", adminEmail, me.Email)
	}
	return nil
}

// Plan steps

func (s *StepsContext) executor() *executor.Executor {
	return executor.NewExecutor(s.client, journal.NewGormStore(s.tc.Journal)).
		WithOperator(adminEmail).
		WithAuditLogger(audit.Func(func(e audit.Event) { s.events = append(s.events, e) }))
}

func (s *StepsContext) applyBundled(name string, configure func(*executor.Executor)) error {
	b, err := plan.Builtin(name)
	if err != nil {
		return err
	}
	e := s.executor()
	if configure != nil {
		configure(e)
	}
	s.result, s.applyErr = e.Apply(context.Background(), b.Plan, b.Text)
	return nil
}

func (s *StepsContext) iApplyTheBundledPlan(name string) error {
	return s.applyBundled(name, nil)
}

func (s *StepsContext) iApplyTheBundledPlanAsADryRun(name string) error {
	return s.applyBundled(name, func(e *executor.Executor) { e.WithDryRun(true) })
}

func (s *StepsContext) iApplyTheBundledPlanWithForce(name string) error {
	return s.applyBundled(name, func(e *executor.Executor) { e.WithForce(true) })
}

func (s *StepsContext) applyDoc(doc *godog.DocString) error {
	p, err := plan.ParseString(doc.Content)
	if err != nil {
		return err
	}
	s.result, s.applyErr = s.executor().Apply(context.Background(), p, []byte(doc.Content))
	return nil
}

func (s *StepsContext) theFollowingPlanHasBeenApplied(doc *godog.DocString) error {
	if err := s.applyDoc(doc); err != nil {
		return err
	}
	return s.applyErr
}

func (s *StepsContext) iApplyTheFollowingPlan(doc *godog.DocString) error {
	return s.applyDoc(doc)
}

func (s *StepsContext) requireResult() error {
	if s.applyErr != nil {
		return fmt.Errorf("apply failed: %w", s.applyErr)
	}
	if s.result == nil {
		return fmt.Errorf("no plan has been applied")
	}
	return nil
}

func (s *StepsContext) theRunStatusShouldBe(status string) error {
	if s.result == nil {
		return fmt.Errorf("no plan has been applied (error: %v)", s.applyErr)
	}
	if s.result.Status != status {
		return fmt.Errorf("expected status %s, got %s", status, s.result.Status)
	}
	return nil
}

func (s *StepsContext) noStepShouldHaveFailed() error {
	if err := s.requireResult(); err != nil {
		return err
	}
	for _, step := range s.result.Steps {
		if step.Status == executor.StatusFailed {
			return fmt.Errorf("step %d (%s %s) failed: %s", step.Index+1, step.KindName(), step.Target, step.Message)
		}
	}
	return nil
}

func (s *StepsContext) noStepShouldHaveBeenApplied() error {
	if err := s.requireResult(); err != nil {
		return err
	}
	if s.result.Applied != 0 {
		return fmt.Errorf("expected no applied steps, got %d", s.result.Applied)
	}
	return nil
}

func (s *StepsContext) stepShouldBe(n int, status string) error {
	if s.result == nil {
		return fmt.Errorf("no plan has been applied (error: %v)", s.applyErr)
	}
	if n < 1 || n > len(s.result.Steps) {
		return fmt.Errorf("plan has %d steps, no step %d", len(s.result.Steps), n)
	}
	if got := s.result.Steps[n-1].Status.String(); got != status {
		return fmt.Errorf("expected step %d to be %s, got %s (%s)", n, status, got, s.result.Steps[n-1].Message)
	}
	return nil
}

func (s *StepsContext) theApplyShouldFailWith(text string) error {
	if s.applyErr == nil {
		return fmt.Errorf("expected the apply to fail")
	}
	if !strings.Contains(s.applyErr.Error(), text) {
		return fmt.Errorf("expected error containing %q, got %q", text, s.applyErr.Error())
	}
	return nil
}

// CMS state steps

func (s *StepsContext) theCollectionShouldExist(name string) error {
	_, err := s.client.GetCollection(context.Background(), name)
	return err
}

func (s *StepsContext) theCollectionShouldNotExist(name string) error {
	_, err := s.client.GetCollection(context.Background(), name)
	if err == nil {
		return fmt.Errorf("collection %s exists", name)
	}
	if directus.IsForbidden(err) || directus.IsNotFound(err) {
		return nil
	}
	return err
}

func (s *StepsContext) theFieldShouldExistIn(field, collection string) error {
	_, err := s.client.GetField(context.Background(), collection, field)
	return err
}

func (s *StepsContext) iFetchASchemaSnapshot() error {
	var err error
	s.snapshot, err = s.client.Snapshot(context.Background())
	return err
}

func (s *StepsContext) theSnapshotShouldContainTheCollection(name string) error {
	data, err := snapshot.Encode(s.snapshot)
	if err != nil {
		return err
	}
	var doc struct {
		Collections []struct {
			Collection string `json:"collection"`
		} `json:"collections"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, c := range doc.Collections {
		if c.Collection == name {
			return nil
		}
	}
	return fmt.Errorf("snapshot has no collection %s", name)
}

// Journal steps

func (s *StepsContext) theJournalShouldHaveRuns(count int, status, name string) error {
	var n int64
	err := s.tc.Journal.Model(&journal.Run{}).
		Where("plan = ? AND status = ?", name, status).
		Count(&n).Error
	if err != nil {
		return err
	}
	if int(n) != count {
		return fmt.Errorf("expected %d %s runs of %s, got %d", count, status, name, n)
	}
	return nil
}

func (s *StepsContext) theJournalShouldHaveStepsForTheLastRun(count int) error {
	if err := s.requireResult(); err != nil {
		return err
	}
	steps, err := journal.NewGormStore(s.tc.Journal).Steps(context.Background(), s.result.RunID)
	if err != nil {
		return err
	}
	if len(steps) != count {
		return fmt.Errorf("expected %d steps, got %d", count, len(steps))
	}
	return nil
}

// Diagnostic server steps

func (s *StepsContext) theDiagnosticServerIsRunning() error {
	var err error
	s.diag, err = StartDiagServer()
	return err
}

func (s *StepsContext) iRequestFromTheDiagnosticServer(path string) error {
	resp, err := s.tc.HTTPClient.Get(s.diag.URL + path)
	if err != nil {
		return err
	}
	s.response = resp
	s.responseBody, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return err
}

func (s *StepsContext) theResponseStatusShouldBe(status int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseJSONShouldBe(path, expected string) error {
	var doc map[string]interface{}
	if err := json.Unmarshal(s.responseBody, &doc); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}
	var cur interface{} = doc
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%s: not an object at %s", path, key)
		}
		cur = m[key]
	}
	if got := fmt.Sprint(cur); got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", path, expected, got)
	}
	return nil
}
