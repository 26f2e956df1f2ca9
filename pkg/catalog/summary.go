package catalog

// Summary holds aggregate figures over a catalog.
type Summary struct {
	TotalRepos    int            `json:"totalRepos"`
	PrivateRepos  int            `json:"privateRepos"`
	PublicRepos   int            `json:"publicRepos"`
	ArchivedRepos int            `json:"archivedRepos"`
	InactiveRepos int            `json:"inactiveRepos"`
	TotalSizeMB   float64        `json:"totalSizeMB"`
	Languages     map[string]int `json:"languages"`
}

// Summarize computes the catalog summary. Repositories without a primary
// language are not counted in Languages.
func Summarize(repos []Repository) Summary {
	s := Summary{
		TotalRepos: len(repos),
		Languages:  make(map[string]int),
	}

	for _, r := range repos {
		switch r.Visibility {
		case VisibilityPrivate:
			s.PrivateRepos++
		case VisibilityPublic:
			s.PublicRepos++
		}
		if r.IsArchived {
			s.ArchivedRepos++
		}
		if r.Inactive {
			s.InactiveRepos++
		}
		s.TotalSizeMB += r.DiskUsageMB
		if r.PrimaryLanguage != "" && r.PrimaryLanguage != NoLanguage {
			s.Languages[r.PrimaryLanguage]++
		}
	}

	return s
}
