package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// PlanInfo holds the detected Claude subscription plan.
type PlanInfo struct {
	BillingType string
	Name        string // "Max", "Pro" or "Unknown"
}

// DetectPlan reads .claude.json to name the billing plan. It looks in
// claudeDir first, then next to it in the home directory.
func DetectPlan(claudeDir string) PlanInfo {
	for _, path := range []string{
		filepath.Join(claudeDir, ".claude.json"),
		filepath.Join(filepath.Dir(claudeDir), ".claude.json"),
	} {
		data, err := os.ReadFile(path) //nolint:gosec // path is constructed from known claudeDir
		if err != nil {
			continue
		}
		var raw struct {
			BillingType string `json:"billingType"`
		}
		if err := json.Unmarshal(data, &raw); err != nil || raw.BillingType == "" {
			continue
		}
		info := PlanInfo{BillingType: raw.BillingType, Name: "Pro"}
		if raw.BillingType == "stripe_subscription" {
			info.Name = "Max"
		}
		return info
	}
	return PlanInfo{Name: "Unknown"}
}
