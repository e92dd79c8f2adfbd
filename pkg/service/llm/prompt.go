package llm

import "github.com/m-mizutani/gollem"

const queriesSystemPrompt = `You are an OSINT research assistant. Given an investigation task about a person or organization, produce a focused set of search engine queries that would surface public information relevant to the task.

## Instructions:

1. Produce 15 to 20 queries, most promising first.
2. Combine the subject's name with discriminating context from the task (location, employer, profession, known handles).
3. Include quoted exact-match queries where the name is distinctive.
4. Write queries in the language most likely to match the sources, which may differ from the task language.
5. Do not include queries that merely restate the task.`

const variantsSystemPrompt = `You are an OSINT research assistant. Given a person's name or handle, produce plausible identity variants for searching.

## Instructions:

1. nameVariants: alternate spellings, transliterations (Latin and Cyrillic where applicable), name order permutations, common diminutives.
2. emailVariants: likely address patterns built from the name parts, without inventing domains beyond widespread providers.
3. usernameVariants: likely handles built from name parts, initials, and common separator conventions.
4. Produce up to 10 entries per list. Return empty lists when the input gives nothing to work with.`

const condenseSystemPrompt = `You are an OSINT research assistant. Summarize the given search results into compact notes for a later synthesis step.

## Instructions:

1. Keep every concrete fact: names, dates, places, employers, handles, contact details, URLs.
2. Drop boilerplate, ads, and text unrelated to the investigation task.
3. Group facts that clearly concern the same individual.
4. Output plain text notes, one block per apparent individual.`

const synthesisSystemPrompt = `You are an OSINT analyst. Build structured dossiers from the collected material about the investigation subject.

## Instructions:

1. The material may cover several distinct individuals with similar names. Produce one profile per distinct individual; do not merge facts across individuals unless the sources clearly link them.
2. Fill every field. Use "N/A" for scalar fields and an empty array for list fields when the material gives no evidence.
3. Never invent facts. Every claim must be traceable to the collected material, and the sources list must contain the URLs that support the profile.
4. In accuracyAssessment, state how confident the identification is and what evidence anchors it.
5. In conclusion, state whether this individual plausibly matches the investigation subject and why.`

// profileSchema describes the dossier array the synthesis pass must return
func profileSchema() *gollem.Parameter {
	str := func(desc string) *gollem.Parameter {
		return &gollem.Parameter{Type: gollem.TypeString, Description: desc}
	}
	strList := func(desc string) *gollem.Parameter {
		return &gollem.Parameter{
			Type:        gollem.TypeArray,
			Description: desc,
			Items:       &gollem.Parameter{Type: gollem.TypeString},
		}
	}
	required := func(p *gollem.Parameter) *gollem.Parameter {
		p.Required = true
		return p
	}

	return &gollem.Parameter{
		Title:       "ProfileReport",
		Description: "Structured dossiers, one per distinct individual found in the material",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"profiles": {
				Type:        gollem.TypeArray,
				Description: "One profile per distinct individual",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"description": required(str("One-paragraph summary of who this individual appears to be")),
						"mainData": {
							Type:     gollem.TypeObject,
							Required: true,
							Properties: map[string]*gollem.Parameter{
								"fullName":          required(str("Full name as found in the sources")),
								"possibleNicknames": strList("Known nicknames and aliases"),
								"dateOfBirth":       str("Date of birth or N/A"),
								"placeOfBirth":      str("Place of birth or N/A"),
								"citizenship":       str("Citizenship or N/A"),
								"photoLink":         str("URL of a photo or N/A"),
							},
						},
						"contacts": {
							Type: gollem.TypeObject,
							Properties: map[string]*gollem.Parameter{
								"email":            strList("Email addresses found in the sources"),
								"phone":            strList("Phone numbers found in the sources"),
								"residenceAddress": str("Residence address or N/A"),
							},
						},
						"socialMedia": {
							Type: gollem.TypeObject,
							Properties: map[string]*gollem.Parameter{
								"VK":       str("VK profile URL or N/A"),
								"Facebook": str("Facebook profile URL or N/A"),
								"LinkedIn": str("LinkedIn profile URL or N/A"),
								"Telegram": str("Telegram handle or N/A"),
								"other":    strList("Other social accounts"),
							},
						},
						"professionalActivity": {
							Type: gollem.TypeObject,
							Properties: map[string]*gollem.Parameter{
								"education":              strList("Education history"),
								"workplacePosition":      strList("Workplaces and positions"),
								"legalEntityInvolvement": strList("Companies or legal entities the individual is tied to"),
							},
						},
						"mediaMentions": {
							Type: gollem.TypeObject,
							Properties: map[string]*gollem.Parameter{
								"courtRecords":  strList("Court records mentioning the individual"),
								"mediaMentions": strList("Press and media mentions"),
								"dataBreaches":  str("Known data breach exposure or N/A"),
								"achievements":  strList("Awards and notable achievements"),
							},
						},
						"conclusion":         required(str("Whether this individual matches the investigation subject and why")),
						"accuracyAssessment": required(str("Confidence in the identification and its anchoring evidence")),
						"additionalInfo":     str("Anything relevant that fits no other field, or N/A"),
						"sources":            required(strList("URLs supporting this profile")),
					},
				},
			},
		},
	}
}
