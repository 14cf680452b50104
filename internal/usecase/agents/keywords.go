package agents

import (
	"regexp"
	"strings"

	"apply-agent/internal/domain/entity"
)

type keywordRule struct {
	field   string
	pattern *regexp.Regexp
}

// Order matters: the first matching rule wins, so specific names come
// before the bare "name" rule.
var keywordRules = []keywordRule{
	{entity.ProfileEmail, regexp.MustCompile(`\be ?mail\b|email`)},
	{entity.ProfileFirstName, regexp.MustCompile(`first ?name|\bfname\b|given ?name|forename|vorname|prenom`)},
	{entity.ProfileLastName, regexp.MustCompile(`last ?name|\blname\b|surname|family ?name|nachname`)},
	{entity.ProfileResume, regexp.MustCompile(`resume|\bcv\b|curriculum|lebenslauf`)},
	{entity.ProfileCoverLetter, regexp.MustCompile(`cover ?letter|motivation|anschreiben`)},
	{entity.ProfileLinkedIn, regexp.MustCompile(`linked ?in`)},
	{entity.ProfileWebsite, regexp.MustCompile(`website|portfolio|personal ?site|\burl\b|github`)},
	{entity.ProfilePhone, regexp.MustCompile(`phone|\btel\b|mobile|telefon|cell`)},
	{entity.ProfileExperience, regexp.MustCompile(`years? ?of ?experience|experience ?years|\bexperience\b`)},
	{entity.ProfileTitle, regexp.MustCompile(`current ?(job ?)?title|job ?title|position`)},
	{entity.ProfilePostalCode, regexp.MustCompile(`postal|\bzip\b|zip ?code|postcode|plz`)},
	{entity.ProfileCity, regexp.MustCompile(`\bcity\b|town|\bort\b`)},
	{entity.ProfileCountry, regexp.MustCompile(`country|nation|\bland\b`)},
	{entity.ProfileAddress, regexp.MustCompile(`address|street|strasse`)},
	{entity.ProfileFullName, regexp.MustCompile(`full ?name|your ?name|\bname\b`)},
}

var notPersonName = regexp.MustCompile(`company|employer|user ?name|school|university|reference`)

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

func normalize(s string) string {
	s = camelBoundary.ReplaceAllString(s, "$1 $2")
	s = strings.ToLower(s)
	return strings.NewReplacer("_", " ", "-", " ", ".", " ", "[", " ", "]", " ").Replace(s)
}

// MatchProfileField maps a form control to a canonical profile field by
// keyword matching over its type, name, id, label and placeholder.
func MatchProfileField(f entity.FieldDescriptor) (string, bool) {
	switch f.ElementType() {
	case "email":
		return entity.ProfileEmail, true
	case "tel":
		return entity.ProfilePhone, true
	case "hidden", "submit", "button", "reset", "image", "password":
		return "", false
	}

	haystack := normalize(strings.Join([]string{f.Name, f.ID, f.Label, f.Placeholder}, " "))
	if strings.TrimSpace(haystack) == "" {
		return "", false
	}
	for _, rule := range keywordRules {
		if !rule.pattern.MatchString(haystack) {
			continue
		}
		if rule.field == entity.ProfileFullName && notPersonName.MatchString(haystack) {
			return "", false
		}
		if f.ElementType() == "file" && rule.field != entity.ProfileResume && rule.field != entity.ProfileCoverLetter {
			continue
		}
		return rule.field, true
	}
	return "", false
}

// LooksLikeApplicationForm reports whether fields ask for a name, an email
// and at least one of resume, experience, cover letter or phone.
func LooksLikeApplicationForm(fields []entity.FieldDescriptor) bool {
	var name, email, extra bool
	for _, f := range fields {
		field, ok := MatchProfileField(f)
		if !ok {
			continue
		}
		switch field {
		case entity.ProfileFirstName, entity.ProfileLastName, entity.ProfileFullName:
			name = true
		case entity.ProfileEmail:
			email = true
		case entity.ProfileResume, entity.ProfileExperience, entity.ProfileCoverLetter, entity.ProfilePhone:
			extra = true
		}
	}
	return name && email && extra
}

// HasContactField reports whether any field asks for an email or a resume.
func HasContactField(fields []entity.FieldDescriptor) bool {
	for _, f := range fields {
		if field, ok := MatchProfileField(f); ok && (field == entity.ProfileEmail || field == entity.ProfileResume) {
			return true
		}
	}
	return false
}
