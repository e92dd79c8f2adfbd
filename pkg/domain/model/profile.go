package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// NotAvailable fills scalar profile fields the synthesis step could not
// determine from the collected data.
const NotAvailable = "N/A"

// Profile is one structured report about a distinct individual ("lookalike")
// synthesized from the collected data. The LLM output is loosely shaped;
// NormalizeProfiles maps it onto this strict type.
type Profile struct {
	Description          string               `json:"description"`
	MainData             MainData             `json:"mainData"`
	Contacts             Contacts             `json:"contacts"`
	SocialMedia          SocialMedia          `json:"socialMedia"`
	ProfessionalActivity ProfessionalActivity `json:"professionalActivity"`
	MediaMentions        MediaMentions        `json:"mediaMentions"`
	Conclusion           string               `json:"conclusion"`
	AccuracyAssessment   string               `json:"accuracyAssessment"`
	AdditionalInfo       string               `json:"additionalInfo"`
	Sources              []string             `json:"sources"`
}

type MainData struct {
	FullName          string   `json:"fullName"`
	PossibleNicknames []string `json:"possibleNicknames"`
	DateOfBirth       string   `json:"dateOfBirth"`
	PlaceOfBirth      string   `json:"placeOfBirth"`
	Citizenship       string   `json:"citizenship"`
	PhotoLink         string   `json:"photoLink"`
}

type Contacts struct {
	Email            []string `json:"email"`
	Phone            []string `json:"phone"`
	ResidenceAddress string   `json:"residenceAddress"`
}

type SocialMedia struct {
	VK       string   `json:"VK"`
	Facebook string   `json:"Facebook"`
	LinkedIn string   `json:"LinkedIn"`
	Telegram string   `json:"Telegram"`
	Other    []string `json:"other"`
}

type ProfessionalActivity struct {
	Education              []string `json:"education"`
	WorkplacePosition      []string `json:"workplacePosition"`
	LegalEntityInvolvement []string `json:"legalEntityInvolvement"`
}

type MediaMentions struct {
	CourtRecords  []string `json:"courtRecords"`
	MediaMentions []string `json:"mediaMentions"`
	DataBreaches  string   `json:"dataBreaches"`
	Achievements  []string `json:"achievements"`
}

// Variants holds identity variants generated for a full name: alternate
// spellings and transliterations, plausible email addresses, and likely
// usernames.
type Variants struct {
	NameVariants     []string `json:"nameVariants"`
	EmailVariants    []string `json:"emailVariants"`
	UsernameVariants []string `json:"usernameVariants"`
}

// NormalizeProfiles converts decoded LLM output into strict profiles. It
// accepts a bare array of profile objects or an object wrapping the array
// under a known field name. A missing or non-array top level is a hard
// error; any field below that is filled with "N/A" or an empty list when
// absent or of an unexpected shape.
func NormalizeProfiles(raw any) ([]Profile, error) {
	items, err := profileArray(raw)
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			// Skip non-object array members instead of failing the batch
			continue
		}
		profiles = append(profiles, normalizeProfile(obj))
	}

	return profiles, nil
}

// profileArray locates the mandatory profile array in the decoded output
func profileArray(raw any) ([]any, error) {
	switch v := raw.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range []string{"profiles", "reports", "tsezki", "lookalikes", "results"} {
			if arr, ok := v[key].([]any); ok {
				return arr, nil
			}
		}
	}
	return nil, goerr.New("LLM output has no profile array", goerr.V("type", typeName(raw)))
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case string:
		return "string"
	default:
		return "scalar"
	}
}

func normalizeProfile(obj map[string]any) Profile {
	main := subObject(obj, "mainData", "main")
	contacts := subObject(obj, "contacts", "contact")
	social := subObject(obj, "socialMedia", "social")
	prof := subObject(obj, "professionalActivity", "professional")
	media := subObject(obj, "mediaMentions", "media")

	return Profile{
		Description: text(obj, "description", "summary"),
		MainData: MainData{
			FullName:          text(main, "fullName", "name"),
			PossibleNicknames: list(main, "possibleNicknames", "nicknames"),
			DateOfBirth:       text(main, "dateOfBirth"),
			PlaceOfBirth:      text(main, "placeOfBirth"),
			Citizenship:       text(main, "citizenship"),
			PhotoLink:         text(main, "photoLink"),
		},
		Contacts: Contacts{
			Email:            list(contacts, "email", "emails"),
			Phone:            list(contacts, "phone", "phones"),
			ResidenceAddress: text(contacts, "residenceAddress", "address"),
		},
		SocialMedia: SocialMedia{
			VK:       text(social, "VK", "vk"),
			Facebook: text(social, "Facebook", "facebook"),
			LinkedIn: text(social, "LinkedIn", "linkedin"),
			Telegram: text(social, "Telegram", "telegram"),
			Other:    list(social, "other"),
		},
		ProfessionalActivity: ProfessionalActivity{
			Education:              list(prof, "education"),
			WorkplacePosition:      list(prof, "workplacePosition", "workplaces"),
			LegalEntityInvolvement: list(prof, "legalEntityInvolvement"),
		},
		MediaMentions: MediaMentions{
			CourtRecords:  list(media, "courtRecords"),
			MediaMentions: list(media, "mediaMentions", "mentions"),
			DataBreaches:  text(media, "dataBreaches"),
			Achievements:  list(media, "achievements"),
		},
		Conclusion:         text(obj, "conclusion"),
		AccuracyAssessment: text(obj, "accuracyAssessment", "certainty"),
		AdditionalInfo:     text(obj, "additionalInfo"),
		Sources:            list(obj, "sources", "urls"),
	}
}

// subObject returns the first object-valued field among the given keys
func subObject(obj map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if sub, ok := obj[key].(map[string]any); ok {
			return sub
		}
	}
	return nil
}

// text returns the first non-empty string among the given keys, or "N/A"
func text(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return NotAvailable
}

// list returns the first array-of-strings among the given keys. A bare
// string is promoted to a single-element list; anything else is empty.
func list(obj map[string]any, keys ...string) []string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case string:
			if v != "" {
				return []string{v}
			}
		}
	}
	return []string{}
}
