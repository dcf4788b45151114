// ABOUTME: Version constants
// ABOUTME: Identifies the product in logs and diagnostics
package version

const (
	Version      = "0.1.0"
	Product      = "PromptDJ"
	Manufacturer = "PromptDJ Project"
)
