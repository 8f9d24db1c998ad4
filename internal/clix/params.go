package clix

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

// ParseStatusFilter reads the --status flag and validates it against the
// known job statuses. An empty flag means no filter.
func ParseStatusFilter(flags *pflag.FlagSet) (models.JobStatus, error) {
	raw, _ := flags.GetString("status")
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", nil
	}
	status := models.JobStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q (expected pending, priority, running, completed or failed)", raw)
	}
	return status, nil
}

// ParseLabels splits a comma-separated label list, trimming space and
// dropping empty entries.
func ParseLabels(flags *pflag.FlagSet) ([]string, error) {
	raw, _ := flags.GetString("labels")
	var labels []string
	if raw != "" {
		for _, l := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(l); trimmed != "" {
				labels = append(labels, trimmed)
			}
		}
	}
	return labels, nil
}
