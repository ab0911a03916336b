package authors

import (
	"github.com/shishobooks/catalog/pkg/models"
)

// AuthorPayload is the body of POST and PUT. Blank birth_date and website are
// stored as null.
type AuthorPayload struct {
	Name        string  `json:"name" form:"name" mod:"trim" validate:"required,min=2,max=100"`
	Bio         string  `json:"bio" form:"bio" mod:"trim"`
	BirthDate   *string `json:"birth_date" form:"birth_date" mod:"trim" validate:"omitempty,date,notfuture"`
	Nationality string  `json:"nationality" form:"nationality" mod:"trim" validate:"max=50"`
	Website     *string `json:"website" form:"website" mod:"trim" validate:"omitempty,url,max=200"`
}

// UpdateAuthorPayload is the body of PATCH. Only the fields that are present
// are applied.
type UpdateAuthorPayload struct {
	Name        *string `json:"name,omitempty" form:"name" mod:"trim" validate:"omitnil,min=2,max=100"`
	Bio         *string `json:"bio,omitempty" form:"bio" mod:"trim"`
	BirthDate   *string `json:"birth_date,omitempty" form:"birth_date" mod:"trim" validate:"omitempty,date,notfuture"`
	Nationality *string `json:"nationality,omitempty" form:"nationality" mod:"trim" validate:"omitnil,max=50"`
	Website     *string `json:"website,omitempty" form:"website" mod:"trim" validate:"omitempty,url,max=200"`
}

func nullIfBlank(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func (p *AuthorPayload) apply(author *models.Author) {
	author.Name = p.Name
	author.Bio = p.Bio
	author.BirthDate = nullIfBlank(p.BirthDate)
	author.Nationality = p.Nationality
	author.Website = nullIfBlank(p.Website)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// apply copies the present fields onto author and returns the changed
// columns.
func (p *UpdateAuthorPayload) apply(author *models.Author) []string {
	columns := []string{}

	if p.Name != nil && *p.Name != author.Name {
		author.Name = *p.Name
		columns = append(columns, "name")
	}
	if p.Bio != nil && *p.Bio != author.Bio {
		author.Bio = *p.Bio
		columns = append(columns, "bio")
	}
	if p.BirthDate != nil {
		birthDate := nullIfBlank(p.BirthDate)
		if !equalPtr(birthDate, author.BirthDate) {
			author.BirthDate = birthDate
			columns = append(columns, "birth_date")
		}
	}
	if p.Nationality != nil && *p.Nationality != author.Nationality {
		author.Nationality = *p.Nationality
		columns = append(columns, "nationality")
	}
	if p.Website != nil {
		website := nullIfBlank(p.Website)
		if !equalPtr(website, author.Website) {
			author.Website = website
			columns = append(columns, "website")
		}
	}

	return columns
}
