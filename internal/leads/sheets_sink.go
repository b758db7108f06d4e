package leads

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const valueInputUserEntered = "USER_ENTERED"

type valuesAppender interface {
	Append(ctx context.Context, spreadsheetID, rng string, values *sheets.ValueRange) error
}

type sheetsValuesAppender struct {
	svc *sheets.Service
}

func (a sheetsValuesAppender) Append(ctx context.Context, spreadsheetID, rng string, values *sheets.ValueRange) error {
	_, err := a.svc.Spreadsheets.Values.Append(spreadsheetID, rng, values).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// SheetsSink appends each lead as one row through the Google Sheets API.
type SheetsSink struct {
	values        valuesAppender
	spreadsheetID string
	rng           string
}

// NewSheetsSink builds a sink authenticated with a service-account key file.
// An empty credentials file falls back to application default credentials.
func NewSheetsSink(ctx context.Context, spreadsheetID, rng, credentialsFile string) (*SheetsSink, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("leads: sheets client: %w", err)
	}
	return newSheetsSink(sheetsValuesAppender{svc: svc}, spreadsheetID, rng), nil
}

func newSheetsSink(values valuesAppender, spreadsheetID, rng string) *SheetsSink {
	if rng == "" {
		rng = "Leads!A:G"
	}
	return &SheetsSink{values: values, spreadsheetID: spreadsheetID, rng: rng}
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Record(ctx context.Context, rec Record) error {
	fields := rec.FormFields()
	row := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		row = append(row, f[1])
	}
	err := s.values.Append(ctx, s.spreadsheetID, s.rng, &sheets.ValueRange{
		MajorDimension: "ROWS",
		Values:         [][]interface{}{row},
	})
	if err != nil {
		return fmt.Errorf("leads: sheets append: %w", err)
	}
	return nil
}
