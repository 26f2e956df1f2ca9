package catalog

import (
	"bytes"
	"sort"
	"text/template"
	"time"
)

// ReportTimeFormat is the layout of the report generation time.
const ReportTimeFormat = "2006-01-02 15:04:05"

// maxReportLanguages is the number of languages listed in a report.
const maxReportLanguages = 5

// LanguageCount is the number of repositories using a primary language.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// Report is a maintenance report over a set of catalog repositories. Every
// unarchived repository is listed in exactly one of ArchiveCandidates,
// DeleteCandidates and Active.
type Report struct {
	GeneratedAt  time.Time       `json:"generatedAt"`
	Summary      Summary         `json:"summary"`
	TopLanguages []LanguageCount `json:"topLanguages"`
	// ArchiveCandidates are inactive repositories that still hold content.
	ArchiveCandidates []Repository `json:"archiveCandidates"`
	// DeleteCandidates are empty repositories and inactive archived ones.
	DeleteCandidates []Repository `json:"deleteCandidates"`
	Active           []Repository `json:"active"`
}

// NewReport classifies repos and returns their report.
func NewReport(repos []Repository, now time.Time) Report {
	r := Report{
		GeneratedAt:       now,
		Summary:           Summarize(repos),
		ArchiveCandidates: make([]Repository, 0),
		DeleteCandidates:  make([]Repository, 0),
		Active:            make([]Repository, 0),
	}

	for _, repo := range repos {
		switch {
		case repo.DiskUsage == 0, repo.IsArchived && repo.Inactive:
			r.DeleteCandidates = append(r.DeleteCandidates, repo)
		case repo.IsArchived:
		case repo.Inactive:
			r.ArchiveCandidates = append(r.ArchiveCandidates, repo)
		default:
			r.Active = append(r.Active, repo)
		}
	}

	// longest inactive first
	sort.SliceStable(r.ArchiveCandidates, func(i, j int) bool {
		return r.ArchiveCandidates[i].DaysSinceLastPush > r.ArchiveCandidates[j].DaysSinceLastPush
	})
	sort.SliceStable(r.DeleteCandidates, func(i, j int) bool {
		return r.DeleteCandidates[i].Name < r.DeleteCandidates[j].Name
	})
	sort.SliceStable(r.Active, func(i, j int) bool {
		return r.Active[i].DaysSinceLastPush < r.Active[j].DaysSinceLastPush
	})

	r.TopLanguages = topLanguages(r.Summary.Languages, maxReportLanguages)

	return r
}

func topLanguages(langs map[string]int, n int) []LanguageCount {
	out := make([]LanguageCount, 0, len(langs))
	for l, c := range langs {
		out = append(out, LanguageCount{Language: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Language < out[j].Language
	})
	if len(out) > n {
		out = out[:n]
	}

	return out
}

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format(ReportTimeFormat) },
	"pushed": func(r Repository) string {
		if len(r.PushedAt) < len("2006-01-02") {
			return "never"
		}
		return r.PushedAt[:len("2006-01-02")]
	},
}).Parse(`# GitHub Repository Analysis Report

*Generated on: {{ date .GeneratedAt }}*

## Overview

- Total repositories: {{ .Summary.TotalRepos }}
- Private: {{ .Summary.PrivateRepos }}
- Public: {{ .Summary.PublicRepos }}
- Archived: {{ .Summary.ArchivedRepos }}
- Inactive: {{ .Summary.InactiveRepos }}
- Total size: {{ printf "%.2f" .Summary.TotalSizeMB }} MB

## Top Languages
{{ if .TopLanguages }}
{{ range .TopLanguages }}- {{ .Language }}: {{ .Count }}
{{ end }}{{ else }}
None detected.
{{ end }}
## Archive Candidates

Inactive repositories that still hold content.
{{ template "table" .ArchiveCandidates }}
## Deletion Candidates

Empty repositories and archived repositories without recent activity.
{{ template "table" .DeleteCandidates }}
## Active Repositories
{{ template "table" .Active }}
{{- define "table" }}
{{ if . }}| Repository | Visibility | Language | Last Push | Days Since Push | Size (MB) |
| --- | --- | --- | --- | --- | --- |
{{ range . }}| {{ .Name }} | {{ .Visibility }} | {{ .PrimaryLanguage }} | {{ pushed . }} | {{ .DaysSinceLastPush }} | {{ printf "%.2f" .DiskUsageMB }} |
{{ end }}{{ else }}None.
{{ end }}{{ end }}`))

// Markdown renders the report as a markdown document.
func (r Report) Markdown() (string, error) {
	var b bytes.Buffer
	if err := reportTmpl.Execute(&b, r); err != nil {
		return "", err
	}

	return b.String(), nil
}
