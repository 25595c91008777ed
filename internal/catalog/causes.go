package catalog

// DefaultLineCause is stored on detail lines that have no rejection cause.
const DefaultLineCause = "SC"

// RejectionCause is one entry of the rejection cause table.
type RejectionCause struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// RejectionCauses lists the fixed cause codes in display order.
var RejectionCauses = []RejectionCause{
	{Code: "SC", Description: "Sin Causal"},
	{Code: "OE", Description: "No Solicitado"},
	{Code: "TI", Description: "Avería en Transporte"},
	{Code: "WC", Description: "Error en Cliente"},
	{Code: "DU", Description: "Duplicado"},
	{Code: "RO", Description: "Cobro a Transportadora"},
	{Code: "FQ", Description: "Avería Calidad"},
	{Code: "CB", Description: "Sin Dinero"},
	{Code: "WH", Description: "Faltante"},
	{Code: "CH", Description: "Fecha Corta"},
}

var causeDescriptions = func() map[string]string {
	m := make(map[string]string, len(RejectionCauses))
	for _, c := range RejectionCauses {
		m[c.Code] = c.Description
	}
	return m
}()

// IsKnownCause reports whether code belongs to the cause table. Unknown codes
// are still accepted on write.
func IsKnownCause(code string) bool {
	_, ok := causeDescriptions[code]
	return ok
}

// CauseDescription returns the description of a cause code, or the code
// itself when it is not in the table.
func CauseDescription(code string) string {
	if d, ok := causeDescriptions[code]; ok {
		return d
	}
	return code
}

// LineCauseOrDefault returns code, or DefaultLineCause when code is empty.
func LineCauseOrDefault(code string) string {
	if code == "" {
		return DefaultLineCause
	}
	return code
}
