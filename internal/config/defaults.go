package config

const (
	defaultConfigPath        = "~/.config/prodledger/config.toml"
	defaultDataDir           = "~/.local/share/prodledger"
	defaultLogDir            = "~/.local/share/prodledger/logs"
	defaultProductionFile    = "production_data.json"
	defaultDeliveryFile      = "delivery_data.json"
	defaultJournalFile       = "journal.db"
	defaultEncoding          = "utf-8"
	defaultInvalidDate       = "skip"
	defaultInvalidNumber     = "default"
	defaultHeaderRows        = 1
	defaultProductionCompare = "record"
	defaultRecentDays        = 7
	defaultSheetsRange       = "Production!A:M"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// DefaultWeekdayLabels are the day-of-week labels used when the delivery
// section does not override them. Index 0 is Sunday.
var DefaultWeekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	labels := make([]string, len(DefaultWeekdayLabels))
	copy(labels, DefaultWeekdayLabels)
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Store: Store{
			ProductionFile: defaultProductionFile,
			DeliveryFile:   defaultDeliveryFile,
			Indent:         true,
		},
		Import: Import{
			Encoding:          defaultEncoding,
			InvalidDate:       defaultInvalidDate,
			InvalidNumber:     defaultInvalidNumber,
			HeaderRows:        defaultHeaderRows,
			ProductionCompare: defaultProductionCompare,
		},
		Delivery: Delivery{
			WeekdayLabels: labels,
			RecentDays:    defaultRecentDays,
		},
		Sheets: Sheets{
			Range: defaultSheetsRange,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
