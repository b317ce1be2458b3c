package patterns

import "github.com/flowforge/flowforge/pkg/models"

// DefaultLibrary returns the built-in pattern table. Keywords are stored
// pre-stemmed so they compare directly against stemmed goal tokens. The
// table is versioned with the binary and never modified at runtime.
func DefaultLibrary() []*models.Pattern {
	return []*models.Pattern{
		{
			ID:       "api-polling",
			Name:     "API Polling Monitor",
			Keywords: []string{"poll", "api", "fetch", "monitor", "check"},
			SuggestedNodeTypes: []string{
				"pkg.scheduleTrigger",
				"pkg.httpRequest",
				"pkg.if",
			},
		},
		{
			ID:       "csv-transform",
			Name:     "CSV Transformation",
			Keywords: []string{"csv", "spreadsheet", "transform", "convert", "column"},
			SuggestedNodeTypes: []string{
				"pkg.manualTrigger",
				"pkg.spreadsheetFile",
				"pkg.set",
			},
		},
		{
			ID:       "data-sync",
			Name:     "Data Synchronization",
			Keywords: []string{"sync", "database", "record", "import", "export"},
			SuggestedNodeTypes: []string{
				"pkg.scheduleTrigger",
				"pkg.httpRequest",
				"pkg.postgres",
			},
		},
		{
			ID:       "email-report",
			Name:     "Scheduled Email Report",
			Keywords: []string{"email", "report", "daily", "summary", "digest"},
			SuggestedNodeTypes: []string{
				"pkg.scheduleTrigger",
				"pkg.httpRequest",
				"pkg.emailSend",
			},
		},
		{
			ID:       "file-backup",
			Name:     "File Backup",
			Keywords: []string{"file", "backup", "copy", "archive"},
			SuggestedNodeTypes: []string{
				"pkg.scheduleTrigger",
				"pkg.readBinaryFile",
				"pkg.writeBinaryFile",
			},
		},
		{
			ID:       "slack-notification",
			Name:     "Slack Notification",
			Keywords: []string{"slack", "notification", "message", "alert"},
			SuggestedNodeTypes: []string{
				"pkg.webhookTrigger",
				"pkg.slack",
			},
		},
		{
			ID:       "webhook-processing",
			Name:     "Webhook Processing",
			Keywords: []string{"webhook", "receive", "event", "process"},
			SuggestedNodeTypes: []string{
				"pkg.webhookTrigger",
				"pkg.set",
				"pkg.httpRequest",
			},
		},
	}
}
