package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_JSON(t *testing.T) {
	var id ID
	require.NoError(t, json.Unmarshal([]byte(`42`), &id))
	assert.Equal(t, ID(42), id)

	require.NoError(t, json.Unmarshal([]byte(`"17"`), &id))
	assert.Equal(t, ID(17), id)

	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.Equal(t, ID(0), id)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &id))

	out, err := json.Marshal(ID(9))
	require.NoError(t, err)
	assert.Equal(t, `"9"`, string(out))
}

func TestAmount_Lenient(t *testing.T) {
	var body struct {
		A Amount  `json:"a"`
		B Amount  `json:"b"`
		C Amount  `json:"c"`
		D *Amount `json:"d"`
		E *Amount `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 12.5, "b": "3", "c": "n/a", "d": null, "e": 0}`), &body)
	require.NoError(t, err)

	assert.Equal(t, Amount(12.5), body.A)
	assert.Equal(t, Amount(3), body.B)
	assert.Equal(t, Amount(0), body.C)
	assert.Nil(t, body.D)
	require.NotNil(t, body.E)
	assert.Equal(t, 0.0, *body.E.Float())
	assert.Equal(t, 0.0, body.D.Value())
}

func TestDate_Lenient(t *testing.T) {
	var body struct {
		A *Date `json:"a"`
		B *Date `json:"b"`
		C *Date `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a": "15/03/2024", "b": 45356, "c": "soon"}`), &body)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-15", body.A.Format("2006-01-02"))
	assert.Equal(t, "2024-03-05", body.B.Format("2006-01-02"))
	assert.Nil(t, body.C.Ptr())
}

func TestInvoicePatchRequest_Modes(t *testing.T) {
	var lineCause InvoicePatchRequest
	require.NoError(t, json.Unmarshal([]byte(`{"detail_id": 5, "rejection_cause_code_line": null}`), &lineCause))
	assert.True(t, lineCause.IsLineCauseUpdate())
	assert.Nil(t, lineCause.RejectionCauseCodeLine.Value)

	var legalize InvoicePatchRequest
	body := `{"id": "7", "status": "Completo", "voucherAmount": "1500",
		"details": [{"id": 1, "receivedUnits": 8, "quantity": 0}]}`
	require.NoError(t, json.Unmarshal([]byte(body), &legalize))
	assert.False(t, legalize.IsLineCauseUpdate())
	assert.Equal(t, ID(7), legalize.ID)

	header := legalize.Header()
	require.NotNil(t, header.VoucherAmount)
	assert.Equal(t, 1500.0, *header.VoucherAmount)

	in := legalize.Details[0].Input()
	require.NotNil(t, in.Quantity)
	assert.Equal(t, 0.0, *in.Quantity)
	assert.Nil(t, in.UnitPrice)
	assert.Equal(t, 8.0, *in.ReceivedUnits)
}

func TestCreateInvoiceRequest_ToInvoice(t *testing.T) {
	cause := "TI"
	req := CreateInvoiceRequest{
		InvoiceNumber: "  F-100 ",
		InvoiceTotal:  Amount(2000),
		Status:        "Pending",
		Details: []CreateDetailRequest{
			{SKU: "A", Quantity: 3},
			{SKU: "B", Quantity: 2, RejectionCauseCodeLine: &cause},
		},
	}

	inv := req.ToInvoice()

	assert.Equal(t, "F-100", inv.InvoiceNumber)
	assert.Equal(t, 2000.0, inv.InvoiceTotal)
	require.Len(t, inv.Details, 2)
	assert.Equal(t, "SC", inv.Details[0].RejectionCauseCodeLine)
	assert.Equal(t, "TI", inv.Details[1].RejectionCauseCodeLine)
}

func TestViews(t *testing.T) {
	invoiceDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	received := 8.0
	inv := &Invoice{
		ID:            3,
		InvoiceNumber: "F-1",
		InvoiceDate:   &invoiceDate,
		Status:        "Pending",
		Details: []InvoiceDetail{
			{ID: 1, Quantity: 10, UnitPrice: 100, NetAmount: 1000, ReceivedUnits: &received},
			{ID: 2, Quantity: 5, UnitPrice: 10, NetAmount: 50},
		},
	}

	list := ListView(inv, now)
	assert.Equal(t, "01/03/2024", list.InvoiceDate)
	assert.Equal(t, "Pendiente", list.Status)
	assert.Equal(t, "Pendiente Crítico", list.DisplayStatus.Label)
	assert.Nil(t, list.Totals)
	assert.Equal(t, "SC", list.Details[1].RejectionCauseCodeLine)

	detailed := DetailedView(inv, now)
	assert.Equal(t, "2024-03-01", detailed.InvoiceDate)
	assert.Equal(t, "Pending", detailed.Status)
	require.NotNil(t, detailed.Totals)
	assert.Equal(t, 15.0, detailed.Totals.TotalUnits)
	assert.Equal(t, 13.0, detailed.Totals.TotalReceivedUnits)
	assert.Equal(t, 850.0, detailed.Totals.TotalReceivedValue)
}

func TestUserView_Translates(t *testing.T) {
	u := &User{ID: 1, Name: "Ana", Role: "Administrator", Status: "Inactive"}

	v := NewUserView(u)

	assert.Equal(t, "Administrador", v.Role)
	assert.Equal(t, "Inactivo", v.Status)
	assert.False(t, u.IsActive())
}

func TestImportResult_AddError(t *testing.T) {
	var r ImportResult
	r.AddError(2, "Falta INVOICE_NUMBER", nil)
	assert.Equal(t, 1, r.ErrorCount)
	assert.Equal(t, 2, r.Errors[0].Row)
}
