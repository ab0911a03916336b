package models

const (
	GenreFiction    = "fiction"
	GenreNonFiction = "non-fiction"
	GenreMystery    = "mystery"
	GenreRomance    = "romance"
	GenreSciFi      = "sci-fi"
	GenreFantasy    = "fantasy"
	GenreBiography  = "biography"
	GenreHistory    = "history"
	GenreSelfHelp   = "self-help"
	GenreBusiness   = "business"
	GenreTechnology = "technology"
	GenreOther      = "other"
)

// Genres lists every genre a book may have, in display order.
var Genres = []string{
	GenreFiction,
	GenreNonFiction,
	GenreMystery,
	GenreRomance,
	GenreSciFi,
	GenreFantasy,
	GenreBiography,
	GenreHistory,
	GenreSelfHelp,
	GenreBusiness,
	GenreTechnology,
	GenreOther,
}

func IsValidGenre(genre string) bool {
	for _, g := range Genres {
		if g == genre {
			return true
		}
	}
	return false
}
