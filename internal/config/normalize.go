package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeImport()
	c.normalizeDelivery()
	if err := c.normalizeSheets(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.ProductionFile = strings.TrimSpace(c.Store.ProductionFile)
	if c.Store.ProductionFile == "" {
		c.Store.ProductionFile = defaultProductionFile
	}
	c.Store.DeliveryFile = strings.TrimSpace(c.Store.DeliveryFile)
	if c.Store.DeliveryFile == "" {
		c.Store.DeliveryFile = defaultDeliveryFile
	}
}

func (c *Config) normalizeImport() {
	c.Import.Encoding = strings.ToLower(strings.TrimSpace(c.Import.Encoding))
	switch c.Import.Encoding {
	case "", "utf8":
		c.Import.Encoding = defaultEncoding
	case "sjis", "shift-jis", "cp932":
		c.Import.Encoding = "shift_jis"
	}
	switch strings.ToLower(strings.TrimSpace(c.Import.Delimiter)) {
	case "tab", `\t`:
		c.Import.Delimiter = "\t"
	case "comma":
		c.Import.Delimiter = ","
	case "semicolon":
		c.Import.Delimiter = ";"
	}
	c.Import.InvalidDate = strings.ToLower(strings.TrimSpace(c.Import.InvalidDate))
	if c.Import.InvalidDate == "" {
		c.Import.InvalidDate = defaultInvalidDate
	}
	c.Import.InvalidNumber = strings.ToLower(strings.TrimSpace(c.Import.InvalidNumber))
	if c.Import.InvalidNumber == "" {
		c.Import.InvalidNumber = defaultInvalidNumber
	}
	c.Import.ProductionCompare = strings.ToLower(strings.TrimSpace(c.Import.ProductionCompare))
	if c.Import.ProductionCompare == "" {
		c.Import.ProductionCompare = defaultProductionCompare
	}
	c.Import.WorkbookSheet = strings.TrimSpace(c.Import.WorkbookSheet)
	if c.Import.HeaderRows < 0 {
		c.Import.HeaderRows = 0
	}
}

func (c *Config) normalizeDelivery() {
	if len(c.Delivery.WeekdayLabels) == 0 {
		c.Delivery.WeekdayLabels = append([]string(nil), DefaultWeekdayLabels...)
	}
	for i, label := range c.Delivery.WeekdayLabels {
		c.Delivery.WeekdayLabels[i] = strings.TrimSpace(label)
	}
	if c.Delivery.RecentDays <= 0 {
		c.Delivery.RecentDays = defaultRecentDays
	}
}

func (c *Config) normalizeSheets() error {
	c.Sheets.CredentialsPath = strings.TrimSpace(c.Sheets.CredentialsPath)
	if c.Sheets.CredentialsPath == "" {
		if value, ok := os.LookupEnv("PRODLEDGER_SHEETS_CREDENTIALS"); ok {
			c.Sheets.CredentialsPath = strings.TrimSpace(value)
		}
	}
	if c.Sheets.CredentialsPath != "" {
		var err error
		if c.Sheets.CredentialsPath, err = expandPath(c.Sheets.CredentialsPath); err != nil {
			return fmt.Errorf("sheets.credentials_path: %w", err)
		}
	}
	c.Sheets.SpreadsheetID = strings.TrimSpace(c.Sheets.SpreadsheetID)
	if c.Sheets.SpreadsheetID == "" {
		if value, ok := os.LookupEnv("PRODLEDGER_SHEETS_ID"); ok {
			c.Sheets.SpreadsheetID = strings.TrimSpace(value)
		}
	}
	c.Sheets.Range = strings.TrimSpace(c.Sheets.Range)
	if c.Sheets.Range == "" {
		c.Sheets.Range = defaultSheetsRange
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
