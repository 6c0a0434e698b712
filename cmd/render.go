package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"qnotes/internal/app"
	"qnotes/internal/domain"
	"qnotes/internal/logging"
	"qnotes/internal/storage"
)

const previewWidth = 60

// renderSession prints the connection box and one table row per query.
func renderSession(snap domain.SessionSnapshot, path string) error {
	title := pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Notebook")
	body := fmt.Sprintf("Connection: %s\nBackend:    %s", logging.Mask(snap.ConnectionURI), snap.Backend.String())
	if path != "" {
		body += "\nFile:       " + path
	} else {
		body += "\nFile:       (unsaved)"
	}
	pterm.DefaultBox.WithTitle(title).WithPadding(1).Println(body)

	data := pterm.TableData{{"ID", "Status", "Query", "Result"}}
	for _, id := range snap.QueryIDs() {
		st := snap.State(id)
		data = append(data, []string{
			strconv.Itoa(id),
			statusLabel(st.Status),
			preview(snap.Queries[id]),
			preview(st.Result),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func statusLabel(s domain.QueryStatus) string {
	switch s {
	case domain.QueryStatusRunning:
		return pterm.FgYellow.Sprint(string(s))
	case domain.QueryStatusSuccess:
		return pterm.FgGreen.Sprint(string(s))
	case domain.QueryStatusError:
		return pterm.FgRed.Sprint(string(s))
	default:
		return pterm.FgGray.Sprint(string(s))
	}
}

// preview flattens text to one line and truncates it for table cells.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= previewWidth {
		return s
	}
	return s[:previewWidth] + "..."
}

// printCompletion shows the full output of one run.
func printCompletion(id int, c domain.Completion) {
	if c.Success {
		pterm.Success.Printfln("query %d", id)
		if c.Output != "" {
			pterm.Println(strings.TrimRight(c.Output, "\n"))
		}
		return
	}
	pterm.Error.Printfln("query %d: %s", id, strings.TrimRight(c.Output, "\n"))
}

// save writes the notebook, asking for a file name the first time.
func save(ctx context.Context, a *app.App) error {
	err := a.Save(ctx)
	if !errors.Is(err, storage.ErrNoPath) {
		if err == nil {
			pterm.Info.Printfln("saved %s", a.Path())
		}
		return err
	}

	path, err := pterm.DefaultInteractiveTextInput.
		WithDefaultText("Save notebook as").
		WithDefaultValue("notebook.json").
		Show()
	if err != nil {
		return fmt.Errorf("read path: %w", err)
	}
	path = strings.TrimSpace(path)
	if path == "" {
		pterm.Warning.Println("not saved: no file name given")
		return nil
	}
	if err := a.SaveAs(ctx, path); err != nil {
		return err
	}
	pterm.Info.Printfln("saved %s", a.Path())
	return nil
}

// parseID parses a query id argument.
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid query id %q", s)
	}
	return id, nil
}
