package dto

type CompanyFilters struct {
	SearchQuery string
	Page        int
	PageSize    int
}

// CompanyInput is shared by create and update; ID is ignored on create.
type CompanyInput struct {
	ID            string
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
	UserID        string
}
