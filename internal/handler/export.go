// Package handler: export.go implements GET /export.
// Returns every active reservation in a date window as a flat table.
// Supports ?format=csv (CSV) or default (JSON).
package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

// ExportRow is the JSON form of one export row.
type ExportRow struct {
	ReservationID      string             `json:"reservation_id"`
	ConfirmationNumber string             `json:"confirmation_number,omitempty"`
	Status             string             `json:"status"`
	StartDate          openapi_types.Date `json:"start_date"`
	EndDate            openapi_types.Date `json:"end_date"`
	Nights             int                `json:"nights"`
	PartySize          int                `json:"party_size"`
	SiteNumber         int                `json:"site_number"`
	SiteType           string             `json:"site_type"`
	Location           string             `json:"location"`
	CustomerName       string             `json:"customer_name"`
	CustomerContact    string             `json:"customer_contact"`
	TotalAmount        domain.Money       `json:"total_amount"`
	PaidAmount         domain.Money       `json:"paid_amount"`
	BalanceDue         domain.Money       `json:"balance_due"`
}

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"reservation_id", "confirmation_number", "status", "start_date", "end_date",
	"nights", "party_size", "site_number", "site_type", "location",
	"customer_name", "customer_contact", "currency", "total_amount",
	"paid_amount", "balance_due",
}

// GetExport implements GET /export?start_date=&end_date=[&format=csv].
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	stay, err := stayFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "json" {
		s.writeError(w, r, fmt.Errorf("%w: format must be csv or json", domain.ErrValidation))
		return
	}

	rows, err := s.engine.Export(r.Context(), stay)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == "csv" {
		s.writeCSV(w, r, rows)
		return
	}
	out := make([]ExportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, exportRowToResponse(row))
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

// writeCSV encodes rows into a buffer first so an encoding failure can still
// become a 500 instead of a truncated 200.
func (s *Server) writeCSV(w http.ResponseWriter, r *http.Request, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write(exportRowToCSVRecord(row))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.WarnContext(r.Context(), "write csv export", "error", err)
	}
}

func exportRowToResponse(r domain.ExportRow) ExportRow {
	return ExportRow{
		ReservationID:      r.ReservationID,
		ConfirmationNumber: r.ConfirmationNumber,
		Status:             string(r.Status),
		StartDate:          openapi_types.Date{Time: r.StartDate},
		EndDate:            openapi_types.Date{Time: r.EndDate},
		Nights:             r.Nights,
		PartySize:          r.PartySize,
		SiteNumber:         r.SiteNumber,
		SiteType:           string(r.SiteType),
		Location:           string(r.Location),
		CustomerName:       r.CustomerName,
		CustomerContact:    r.CustomerContact,
		TotalAmount:        r.TotalAmount,
		PaidAmount:         r.PaidAmount,
		BalanceDue:         r.BalanceDue,
	}
}

// exportRowToCSVRecord encodes a row as a flat string slice. Amounts are
// plain decimals; the currency has its own column.
func exportRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		r.ReservationID,
		r.ConfirmationNumber,
		string(r.Status),
		r.StartDate.Format(domain.DateLayout),
		r.EndDate.Format(domain.DateLayout),
		strconv.Itoa(r.Nights),
		strconv.Itoa(r.PartySize),
		strconv.Itoa(r.SiteNumber),
		string(r.SiteType),
		string(r.Location),
		r.CustomerName,
		r.CustomerContact,
		r.TotalAmount.Currency(),
		r.TotalAmount.Amount().StringFixed(2),
		r.PaidAmount.Amount().StringFixed(2),
		r.BalanceDue.Amount().StringFixed(2),
	}
}
