package main

import (
	"fmt"
	"strings"
	"time"
)

const (
	gib = float64(1 << 30)
	mib = float64(1 << 20)
)

func formatSize(sizeBytes int64) string {
	if sizeBytes <= 0 {
		return "-"
	}
	if float64(sizeBytes) >= gib {
		return fmt.Sprintf("%.1f GiB", float64(sizeBytes)/gib)
	}
	return fmt.Sprintf("%.0f MiB", float64(sizeBytes)/mib)
}

// formatAge renders an RFC3339 timestamp as a rounded relative age.
func formatAge(value string) string {
	if value == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

func formatDuration(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	if d >= 24*time.Hour {
		days := int(d.Hours()) / 24
		return fmt.Sprintf("%dd%dh", days, int(d.Hours())%24)
	}
	if d >= time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

func formatLanguages(languages []string) string {
	if len(languages) == 0 {
		return "-"
	}
	return strings.Join(languages, ",")
}

func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	if max <= 1 {
		return value[:max]
	}
	return value[:max-1] + "…"
}
