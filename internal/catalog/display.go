package catalog

import "time"

// CriticalPendingDays is the age in days after which a pending invoice is
// shown as critical.
const CriticalPendingDays = 3

// Display tones used by badges and report styling.
const (
	ToneSuccess = "success"
	ToneWarning = "warning"
	ToneAlert   = "alert"
	ToneInfo    = "info"
	ToneInfoAlt = "info-alt"
	ToneNeutral = "neutral"
)

// DisplayStatus is the derived, read-only presentation of an invoice status.
type DisplayStatus struct {
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

// DeriveDisplayStatus derives the presentation label for a stored status.
// The status may be canonical or a Spanish label. A nil invoice date never
// counts as critical.
func DeriveDisplayStatus(status string, invoiceDate *time.Time, now time.Time) DisplayStatus {
	switch StatusFromLabel(status) {
	case StatusComplete:
		return DisplayStatus{Label: "Legalizado", Tone: ToneSuccess}
	case StatusIncomplete:
		return DisplayStatus{Label: "Legalizado con Novedad", Tone: ToneWarning}
	case StatusPending:
		if invoiceDate != nil && DaysSince(*invoiceDate, now) > CriticalPendingDays {
			return DisplayStatus{Label: "Pendiente Crítico", Tone: ToneAlert}
		}
		return DisplayStatus{Label: "En Proceso", Tone: ToneInfo}
	case StatusRedispatch:
		return DisplayStatus{Label: "Redespacho", Tone: ToneInfoAlt}
	case StatusCancelled:
		return DisplayStatus{Label: "Cancelado", Tone: ToneNeutral}
	default:
		return DisplayStatus{Label: status}
	}
}

// DaysSince counts whole calendar days from date to now, ignoring the time of
// day. Invoice dates are stored as plain dates, so a calendar count keeps the
// badge stable for the whole day instead of flipping at the hour the invoice
// was typed in.
func DaysSince(date, now time.Time) int {
	return int(startOfDay(now).Sub(startOfDay(date)).Hours() / 24)
}

// CriticalPendingCutoff is the first invoice date that is not yet critical on
// now's calendar day. A pending invoice dated strictly before it satisfies
// DaysSince > CriticalPendingDays.
func CriticalPendingCutoff(now time.Time) time.Time {
	return startOfDay(now).AddDate(0, 0, -CriticalPendingDays)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
