package entity

import "time"

type Phase string

const (
	PhasePlanning  Phase = "PLANNING"
	PhaseExecuting Phase = "EXECUTING"
	PhaseCompleted Phase = "COMPLETED"
	PhaseFailed    Phase = "FAILED"
)

// TaskRequest is the single inbound call of the system.
type TaskRequest struct {
	TaskQuery string
	AppURL    string
	AppName   string
	TaskName  string
}

// ExecutionEvent is one entry of the append-only run log.
type ExecutionEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Step      int            `json:"step"`
	Event     string         `json:"event"`
	Details   map[string]any `json:"details,omitempty"`
	URL       string         `json:"url"`
	Success   bool           `json:"success"`
}

type FormInteraction struct {
	Step     int    `json:"step"`
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

// WorkflowState is the mutable record of one run.
type WorkflowState struct {
	RunID     string
	TaskQuery string
	AppURL    string
	AppName   string
	TaskName  string

	Phase            Phase
	Steps            []NavigationStep
	Cursor           int
	Screenshots      []string
	ScreenshotStep   map[string]int
	StepDescriptions []string
	UIStates         []PageStateSnapshot
	DetectedModals   []Modal
	FormInteractions []FormInteraction
	ExecutionLog     []ExecutionEvent

	Completed bool
	Err       error

	CurrentActionType    Action
	CurrentActionSuccess bool

	StartedAt time.Time
}

func NewWorkflowState(runID string, req TaskRequest) *WorkflowState {
	return &WorkflowState{
		RunID:          runID,
		TaskQuery:      req.TaskQuery,
		AppURL:         req.AppURL,
		AppName:        req.AppName,
		TaskName:       req.TaskName,
		Phase:          PhasePlanning,
		ScreenshotStep: make(map[string]int),
		StartedAt:      time.Now(),
	}
}

// CurrentStep returns the step under the cursor.
func (s *WorkflowState) CurrentStep() (NavigationStep, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Steps) {
		return NavigationStep{}, false
	}
	return s.Steps[s.Cursor], true
}

func (s *WorkflowState) ErrorString() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

type ScreenshotMeta struct {
	Path       string `json:"path"`
	StepIndex  int    `json:"step_index"`
	StepNumber int    `json:"step_number"`
}

type WorkflowResult struct {
	RunID              string           `json:"run_id"`
	Success            bool             `json:"success"`
	Screenshots        []string         `json:"screenshots"`
	ScreenshotMetadata []ScreenshotMeta `json:"screenshot_metadata"`
	StepDescriptions   []string         `json:"step_descriptions"`
	StepsCompleted     int              `json:"steps_completed"`
	Error              string           `json:"error,omitempty"`
	FinalURL           string           `json:"final_url"`
	UIStatesCaptured   int              `json:"ui_states_captured"`
	ModalsDetected     int              `json:"modals_detected"`
	FormsFilled        int              `json:"forms_filled"`
	ExecutionTime      float64          `json:"execution_time"`
}

// WorkflowMetadata is the durable audit record written once per run.
type WorkflowMetadata struct {
	RunID               string           `json:"run_id"`
	TaskQuery           string           `json:"task_query"`
	AppURL              string           `json:"app_url"`
	AppName             string           `json:"app_name"`
	TaskName            string           `json:"task_name"`
	Completed           bool             `json:"completed"`
	Error               string           `json:"error,omitempty"`
	TotalSteps          int              `json:"total_steps"`
	StepsCompleted      int              `json:"steps_completed"`
	Screenshots         []string         `json:"screenshots"`
	StepDescriptions    []string         `json:"step_descriptions"`
	RawStepDescriptions []string         `json:"raw_step_descriptions"`
	ExecutionTime       float64          `json:"execution_time"`
	ModalsDetected      int              `json:"modals_detected"`
	FormsFilled         int              `json:"forms_filled"`
	UIStatesCaptured    int              `json:"ui_states_captured"`
	ExecutionLog        []ExecutionEvent `json:"execution_log"`
}

// CaptureDecision is the outcome of scoring a step for screenshot capture.
type CaptureDecision struct {
	Capture bool    `json:"capture"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
}

type ScreenshotRequest struct {
	AppName   string
	TaskName  string
	Step      int
	Highlight string
	Modals    []Modal
}

type ScreenshotRecord struct {
	Path         string       `json:"path"`
	MetadataPath string       `json:"metadata_path"`
	Cropped      bool         `json:"cropped"`
	Clip         *BoundingBox `json:"clip_region,omitempty"`
}
