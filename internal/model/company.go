package model

// Company is used for both customer companies and transport companies; they
// live in separate tables with the same shape.
type Company struct {
	BaseModel
	Name          string  `db:"name" json:"name"`
	ContactPerson *string `db:"contact_person" json:"contact_person"`
	Phone         *string `db:"phone" json:"phone"`
	Email         *string `db:"email" json:"email"`
	Address       *string `db:"address" json:"address"`
}

type CompanyKind string

const (
	CompanyKindCustomer  CompanyKind = "company"
	CompanyKindTransport CompanyKind = "transport_company"
)

func (k CompanyKind) Table() string {
	if k == CompanyKindTransport {
		return "transport_companies"
	}
	return "companies"
}
