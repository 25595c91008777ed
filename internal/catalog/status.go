package catalog

import (
	"fmt"
	"strings"
)

// Canonical invoice statuses as stored in the database.
const (
	StatusComplete   = "Complete"
	StatusIncomplete = "Incomplete"
	StatusPending    = "Pending"
	StatusCancelled  = "Cancelled"
	StatusExpired    = "Expired"
	StatusRedispatch = "Redispatch"
)

// Statuses is the write allow-list, in display order.
var Statuses = []string{
	StatusComplete,
	StatusIncomplete,
	StatusPending,
	StatusCancelled,
	StatusExpired,
	StatusRedispatch,
}

var statusLabels = map[string]string{
	StatusComplete:   "Completo",
	StatusIncomplete: "Incompleto",
	StatusPending:    "Pendiente",
	StatusCancelled:  "Cancelado",
	StatusExpired:    "Vencido",
	StatusRedispatch: "Redespacho",
}

var labelStatuses = invert(statusLabels)

// IsValidStatus reports whether status is in the allow-list. Any allowed
// status may follow any other.
func IsValidStatus(status string) bool {
	_, ok := statusLabels[status]
	return ok
}

// NormalizeStatus accepts either a canonical status or its Spanish label and
// returns the canonical value. It fails for anything outside the allow-list.
func NormalizeStatus(status string) (string, error) {
	s := strings.TrimSpace(status)
	if IsValidStatus(s) {
		return s, nil
	}
	if canonical, ok := labelStatuses[s]; ok {
		return canonical, nil
	}
	return "", fmt.Errorf("Status '%s' no permitido", status)
}

// StatusLabel maps a canonical status to its Spanish label. Unknown values
// are returned unchanged.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// StatusFromLabel maps a Spanish label back to the canonical status. Unknown
// values are returned unchanged.
func StatusFromLabel(label string) string {
	if status, ok := labelStatuses[label]; ok {
		return status
	}
	return label
}

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
