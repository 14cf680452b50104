package entity

import "strconv"

// Canonical profile field names shared by the decision service prompts,
// the keyword tables and the fill agent.
const (
	ProfileFirstName   = "firstName"
	ProfileLastName    = "lastName"
	ProfileFullName    = "fullName"
	ProfileEmail       = "email"
	ProfilePhone       = "phone"
	ProfileAddress     = "address"
	ProfileCity        = "city"
	ProfileCountry     = "country"
	ProfilePostalCode  = "postalCode"
	ProfileLinkedIn    = "linkedin"
	ProfileWebsite     = "website"
	ProfileResume      = "resume"
	ProfileCoverLetter = "coverLetter"
	ProfileExperience  = "yearsExperience"
	ProfileTitle       = "currentTitle"
)

type Profile struct {
	FirstName       string            `json:"firstName" yaml:"first_name"`
	LastName        string            `json:"lastName" yaml:"last_name"`
	Email           string            `json:"email" yaml:"email"`
	Phone           string            `json:"phone" yaml:"phone"`
	Address         string            `json:"address,omitempty" yaml:"address"`
	City            string            `json:"city,omitempty" yaml:"city"`
	Country         string            `json:"country,omitempty" yaml:"country"`
	PostalCode      string            `json:"postalCode,omitempty" yaml:"postal_code"`
	LinkedIn        string            `json:"linkedin,omitempty" yaml:"linkedin"`
	Website         string            `json:"website,omitempty" yaml:"website"`
	ResumePath      string            `json:"resumePath,omitempty" yaml:"resume_path"`
	CoverLetter     string            `json:"coverLetter,omitempty" yaml:"cover_letter"`
	YearsExperience int               `json:"yearsExperience,omitempty" yaml:"years_experience"`
	CurrentTitle    string            `json:"currentTitle,omitempty" yaml:"current_title"`
	Extra           map[string]string `json:"extra,omitempty" yaml:"extra"`
}

// Value returns the profile value for a canonical field name, falling back to Extra.
func (p *Profile) Value(field string) (string, bool) {
	if p == nil {
		return "", false
	}
	var v string
	switch field {
	case ProfileFirstName:
		v = p.FirstName
	case ProfileLastName:
		v = p.LastName
	case ProfileFullName:
		v = p.FullName()
	case ProfileEmail:
		v = p.Email
	case ProfilePhone:
		v = p.Phone
	case ProfileAddress:
		v = p.Address
	case ProfileCity:
		v = p.City
	case ProfileCountry:
		v = p.Country
	case ProfilePostalCode:
		v = p.PostalCode
	case ProfileLinkedIn:
		v = p.LinkedIn
	case ProfileWebsite:
		v = p.Website
	case ProfileResume:
		v = p.ResumePath
	case ProfileCoverLetter:
		v = p.CoverLetter
	case ProfileExperience:
		if p.YearsExperience > 0 {
			v = strconv.Itoa(p.YearsExperience)
		}
	case ProfileTitle:
		v = p.CurrentTitle
	default:
		v = p.Extra[field]
	}
	return v, v != ""
}

func (p *Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
