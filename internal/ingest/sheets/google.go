package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"prodledger/internal/config"
	"prodledger/internal/logging"
)

// GoogleSource reads ranges from one spreadsheet with read-only access.
type GoogleSource struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *slog.Logger
}

// NewGoogleSource builds a source from the [sheets] configuration.
func NewGoogleSource(ctx context.Context, cfg config.Sheets, logger *slog.Logger) (*GoogleSource, error) {
	if cfg.CredentialsPath == "" {
		return nil, errors.New("sheets credentials path is required")
	}
	return NewGoogleSourceWithOptions(ctx, cfg.SpreadsheetID, logger,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope))
}

// NewGoogleSourceWithOptions builds a source with explicit client options.
func NewGoogleSourceWithOptions(ctx context.Context, spreadsheetID string, logger *slog.Logger, opts ...option.ClientOption) (*GoogleSource, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize sheets client: %w", err)
	}
	return &GoogleSource{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logging.NewComponentLogger(logger, "sheets"),
	}, nil
}

// ReadRange fetches a range in A1 notation as formatted cell text.
func (g *GoogleSource) ReadRange(ctx context.Context, sheetRange string) ([][]string, error) {
	if sheetRange == "" {
		return nil, errors.New("sheet range must not be empty")
	}

	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellText(v)
		}
		grid[i] = cells
	}

	g.logger.Debug("sheet range read",
		logging.String("range", sheetRange),
		logging.Int("rows", len(grid)))
	return grid, nil
}

func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
