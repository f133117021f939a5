package auth

// AdminList grants the administrative capability to a fixed set of caller
// subjects from configuration.
type AdminList struct {
	subjects map[string]bool
}

func NewAdminList(subjects []string) *AdminList {
	set := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		set[s] = true
	}
	return &AdminList{subjects: set}
}

func (a *AdminList) IsAdministrator(caller string) bool {
	return a.subjects[caller]
}
