package userinteraction

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return NewConsoleWithIO(os.Stdin, os.Stdout)
}

func NewConsoleWithIO(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (u *ConsoleUserInteraction) AskQuestion(ctx context.Context, question string) (string, error) {
	fmt.Fprintf(u.out, "\n%s\n> ", question)

	answer, err := u.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && answer != "") {
		return "", fmt.Errorf("failed to read user input: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

func (u *ConsoleUserInteraction) NotifyLoginRequired(ctx context.Context, status entity.AuthStatus, maxWait time.Duration) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(u.out, "\n[LOGIN REQUIRED] Sign in to %s in the browser window\n", status.URL)

	dim := color.New(color.Faint)
	if len(status.OAuthProviders) > 0 {
		dim.Fprintf(u.out, "   Sign-in options: %s\n", strings.Join(status.OAuthProviders, ", "))
	}
	dim.Fprintf(u.out, "   Waiting up to %s...\n", maxWait.Round(time.Second))
}

func (u *ConsoleUserInteraction) ShowResult(ctx context.Context, result *entity.WorkflowResult) {
	if result == nil {
		return
	}

	if result.Success {
		color.New(color.FgGreen, color.Bold).Fprintln(u.out, "\n✓ Workflow completed")
	} else {
		color.New(color.FgRed, color.Bold).Fprintln(u.out, "\n✗ Workflow failed")
	}

	dim := color.New(color.Faint)
	dim.Fprintf(u.out, "   Run:      %s\n", result.RunID)
	dim.Fprintf(u.out, "   Steps:    %d completed in %.1fs\n", result.StepsCompleted, result.ExecutionTime)
	dim.Fprintf(u.out, "   Final:    %s\n", result.FinalURL)
	dim.Fprintf(u.out, "   UI:       %d states, %d modals, %d forms filled\n",
		result.UIStatesCaptured, result.ModalsDetected, result.FormsFilled)

	if result.Error != "" {
		red := color.New(color.FgRed)
		red.Fprint(u.out, "   Error:    ")
		fmt.Fprintln(u.out, truncate(result.Error, 300))
	}

	byStep := make(map[int][]string)
	for _, m := range result.ScreenshotMetadata {
		byStep[m.StepIndex] = append(byStep[m.StepIndex], m.Path)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(u.out, "\n━━━ Guide (%d steps, %d screenshots) ━━━\n", len(result.StepDescriptions), len(result.Screenshots))
	for i, d := range result.StepDescriptions {
		fmt.Fprintf(u.out, "%2d. %s\n", i+1, truncate(d, 100))
		for _, p := range byStep[i] {
			dim.Fprintf(u.out, "    📸 %s\n", p)
		}
	}
	if extra := byStep[-1]; len(extra) > 0 {
		dim.Fprintln(u.out, "Unassigned screenshots:")
		for _, p := range extra {
			dim.Fprintf(u.out, "    📸 %s\n", p)
		}
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
