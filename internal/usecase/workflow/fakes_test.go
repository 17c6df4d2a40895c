package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/logger"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/planner"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/usecase/validator"
)

var errTypeExhausted = errors.New("all typing strategies failed")

// page is the shared in-memory "browser" the fakes read and mutate.
type page struct {
	mu       sync.Mutex
	url      string
	text     string
	modals   []entity.Modal
	forms    []entity.Form
	fields   map[string]string
	disabled map[string]bool
}

func newPage(url, text string) *page {
	return &page{url: url, text: text, fields: map[string]string{}, disabled: map[string]bool{}}
}

type fakeGate struct {
	err error
}

func (g *fakeGate) Ensure(context.Context, string) (entity.AuthStatus, error) {
	if g.err != nil {
		return entity.AuthStatus{RequiresLogin: true}, g.err
	}
	return entity.AuthStatus{}, nil
}

type fakePlanner struct {
	steps []entity.NavigationStep
	err   error
	req   planner.PlanRequest
}

func (p *fakePlanner) Plan(_ context.Context, req planner.PlanRequest) ([]entity.NavigationStep, error) {
	p.req = req
	return p.steps, p.err
}

// fakeExecutor runs per-selector effects. A selector without an effect
// behaves like an element that does not exist.
type fakeExecutor struct {
	page    *page
	effects map[string]func(p *page, step entity.NavigationStep)
	calls   []string
}

func (e *fakeExecutor) Execute(_ context.Context, step entity.NavigationStep) (bool, error) {
	e.calls = append(e.calls, string(step.ActionType)+" "+step.Selector)

	if step.ActionType == entity.ActionWait {
		return true, nil
	}
	effect, ok := e.effects[step.Selector]
	if !ok {
		if step.ActionType == entity.ActionType {
			return false, errTypeExhausted
		}
		return false, nil
	}
	e.page.mu.Lock()
	effect(e.page, step)
	e.page.mu.Unlock()
	return true, nil
}

type fakeProber struct {
	page *page
}

func (f *fakeProber) CurrentURL(context.Context) string {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	return f.page.url
}

func (f *fakeProber) Title(context.Context) string { return "App" }

func (f *fakeProber) VisibleText(context.Context) string {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	return f.page.text
}

func (f *fakeProber) PageHTML(context.Context) (string, error) {
	return "<body><button id=\"new\">New project</button></body>", nil
}

func (f *fakeProber) HTMLLength(context.Context) int {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	return len(f.page.text)
}

func (f *fakeProber) Structure(context.Context) entity.PageStructure {
	return entity.PageStructure{Title: "App", Buttons: []string{"New project"}}
}

func (f *fakeProber) DetectModals(context.Context) []entity.Modal {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	return append([]entity.Modal(nil), f.page.modals...)
}

func (f *fakeProber) DetectForms(context.Context) []entity.Form {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	return append([]entity.Form(nil), f.page.forms...)
}

func (f *fakeProber) Snapshot(ctx context.Context) entity.PageStateSnapshot {
	return entity.NewSnapshot(f.CurrentURL(ctx), "App", f.VisibleText(ctx), f.DetectModals(ctx), f.DetectForms(ctx))
}

func (f *fakeProber) MenuVisible(context.Context) bool { return false }

func (f *fakeProber) ElementExists(_ context.Context, selector string) bool {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	_, ok := f.page.disabled[selector]
	return ok
}

func (f *fakeProber) ElementDisabled(_ context.Context, selector string) bool {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	return f.page.disabled[selector]
}

func (f *fakeProber) FieldValue(_ context.Context, selector string) (string, bool) {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	v, ok := f.page.fields[selector]
	return v, ok
}

func (f *fakeProber) LoginState(ctx context.Context) entity.AuthStatus {
	return entity.AuthStatus{URL: f.CurrentURL(ctx)}
}

func (f *fakeProber) UserIndicatorsVisible(context.Context) bool { return true }

type fakeShots struct {
	requests []entity.ScreenshotRequest
	err      error
}

func (s *fakeShots) Capture(_ context.Context, req entity.ScreenshotRequest) (*entity.ScreenshotRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.requests = append(s.requests, req)
	return &entity.ScreenshotRecord{
		Path:    fmt.Sprintf("/data/%s/%s/step_%02d.png", req.AppName, req.TaskName, req.Step),
		Cropped: req.Highlight != "",
	}, nil
}

type fakeValidator struct {
	requests []validator.Request
}

func (v *fakeValidator) Validate(_ context.Context, req validator.Request) (entity.StateValidation, error) {
	v.requests = append(v.requests, req)
	return entity.StateValidation{Valid: false, Issues: []string{"spinner"}}, nil
}

type fakeStore struct {
	keys []string
}

func (s *fakeStore) Save(_ context.Context, key string, _ any, _ time.Duration) error {
	s.keys = append(s.keys, key)
	return nil
}

func (s *fakeStore) Load(context.Context, string, any) (bool, error) { return false, nil }

type fakeMetadata struct {
	meta   *entity.WorkflowMetadata
	writes int
}

func (m *fakeMetadata) WriteWorkflowMetadata(app, task string, meta entity.WorkflowMetadata) (string, error) {
	m.writes++
	m.meta = &meta
	return "/data/" + app + "/" + task + "/workflow_metadata.json", nil
}

// harness wires a Workflow around the fakes.
type harness struct {
	page      *page
	gate      *fakeGate
	planner   *fakePlanner
	executor  *fakeExecutor
	shots     *fakeShots
	validator *fakeValidator
	store     *fakeStore
	metadata  *fakeMetadata
	cfg       Config
}

func newHarness(steps ...entity.NavigationStep) *harness {
	p := newPage("https://app.example.com/projects", "Projects")
	return &harness{
		page:      p,
		gate:      &fakeGate{},
		planner:   &fakePlanner{steps: steps},
		executor:  &fakeExecutor{page: p, effects: map[string]func(*page, entity.NavigationStep){}},
		shots:     &fakeShots{},
		validator: &fakeValidator{},
		store:     &fakeStore{},
		metadata:  &fakeMetadata{},
		cfg: Config{
			MaxSteps:      50,
			ValidateEvery: 3,
			RetryDelay:    time.Millisecond,
			SettleDelay:   0,
		},
	}
}

func (h *harness) on(selector string, effect func(p *page, step entity.NavigationStep)) {
	h.executor.effects[selector] = effect
}

func (h *harness) workflow() *Workflow {
	return New(Deps{
		Gate:      h.gate,
		Planner:   h.planner,
		Executor:  h.executor,
		Prober:    &fakeProber{page: h.page},
		Shots:     h.shots,
		Validator: h.validator,
		Store:     h.store,
		Metadata:  h.metadata,
		Logger:    logger.NewNop(),
	}, h.cfg)
}

func (h *harness) run() (*entity.WorkflowResult, error) {
	return h.workflow().Execute(context.Background(), entity.TaskRequest{
		TaskQuery: "Create a project",
		AppURL:    "https://app.example.com",
		AppName:   "linear",
		TaskName:  "create_project",
	})
}

func appendText(p *page, s string) {
	p.text = strings.TrimSpace(p.text + " " + s)
}
