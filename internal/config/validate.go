package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateSheets(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.ProductionPath() == c.DeliveryPath() {
		return errors.New("store.production_file and store.delivery_file must differ")
	}
	return nil
}

func (c *Config) validateImport() error {
	switch c.Import.Encoding {
	case "utf-8", "shift_jis":
	default:
		return fmt.Errorf("import.encoding must be utf-8 or shift_jis, got %q", c.Import.Encoding)
	}
	switch c.Import.Delimiter {
	case "", ",", ";", "\t":
	default:
		return fmt.Errorf("import.delimiter must be empty, comma, semicolon, or tab, got %q", c.Import.Delimiter)
	}
	switch c.Import.InvalidDate {
	case "skip", "reject":
	default:
		return fmt.Errorf("import.invalid_date must be skip or reject, got %q", c.Import.InvalidDate)
	}
	switch c.Import.InvalidNumber {
	case "default", "skip", "reject":
	default:
		return fmt.Errorf("import.invalid_number must be default, skip, or reject, got %q", c.Import.InvalidNumber)
	}
	switch c.Import.ProductionCompare {
	case "record", "batch":
	default:
		return fmt.Errorf("import.production_compare must be record or batch, got %q", c.Import.ProductionCompare)
	}
	return nil
}

func (c *Config) validateDelivery() error {
	if len(c.Delivery.WeekdayLabels) != 7 {
		return fmt.Errorf("delivery.weekday_labels must list 7 labels starting with Sunday, got %d", len(c.Delivery.WeekdayLabels))
	}
	return nil
}

func (c *Config) validateSheets() error {
	if !c.Sheets.Enabled {
		return nil
	}
	if c.Sheets.CredentialsPath == "" {
		return errors.New("sheets.credentials_path must be set when sheets.enabled is true (or export PRODLEDGER_SHEETS_CREDENTIALS)")
	}
	if c.Sheets.SpreadsheetID == "" {
		return errors.New("sheets.spreadsheet_id must be set when sheets.enabled is true (or export PRODLEDGER_SHEETS_ID)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
