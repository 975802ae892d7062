package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
)

// Display writes a user-facing rendering of err to w. Errors that are not
// AppErrors are printed as-is.
func Display(w io.Writer, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		fmt.Fprintf(w, "\n%s %v\n", color.RedString("Error:"), err)
		return
	}

	header := fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message)
	switch appErr.Severity {
	case SeverityCritical, SeverityError:
		header = color.RedString(header)
	case SeverityWarning:
		header = color.YellowString(header)
	case SeverityInfo:
		header = color.CyanString(header)
	}
	fmt.Fprintf(w, "\n%s\n", header)

	if appErr.Cause != nil {
		fmt.Fprintf(w, "  caused by: %v\n", appErr.Cause)
	}

	if len(appErr.Context) > 0 {
		keys := make([]string, 0, len(appErr.Context))
		for k := range appErr.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(w, "\nContext:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, appErr.Context[k])
		}
	}

	if len(appErr.Suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for i, suggestion := range appErr.Suggestions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, suggestion)
		}
	}

	if appErr.Severity == SeverityCritical {
		fmt.Fprintf(w, "\nNo output was produced. Error code %s at %s\n",
			appErr.Code, appErr.Timestamp.Format(time.RFC3339))
	}
}
