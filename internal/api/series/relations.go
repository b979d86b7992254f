package series

import (
	"gorm.io/gorm"

	"series-catalog/internal/domain/catalog"
)

// resolveGenres checks every candidate id against the catalog in one
// bulk lookup. Any unknown id rejects the whole list; nothing is ever
// partially applied.
func resolveGenres(db *gorm.DB, ids []string) ([]catalog.Genre, error) {
	var found []catalog.Genre
	if len(ids) == 0 {
		return found, nil
	}
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	if missing := missingIDs(ids, genreIDs(found)); len(missing) > 0 {
		return nil, &catalog.ValidationError{Message: "one or more genres do not exist", Missing: missing}
	}
	return found, nil
}

func resolveTags(db *gorm.DB, ids []string) ([]catalog.Tag, error) {
	var found []catalog.Tag
	if len(ids) == 0 {
		return found, nil
	}
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	if missing := missingIDs(ids, tagIDs(found)); len(missing) > 0 {
		return nil, &catalog.ValidationError{Message: "one or more tags do not exist", Missing: missing}
	}
	return found, nil
}

// resolveActores validates the actor ids and builds the replacement
// join rows carrying character name and role type.
func resolveActores(db *gorm.DB, serieID string, inputs []ActorInput) ([]catalog.SerieActor, error) {
	rows := make([]catalog.SerieActor, 0, len(inputs))
	if len(inputs) == 0 {
		return rows, nil
	}

	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ActorID)
	}
	var found []catalog.Actor
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(found))
	for _, a := range found {
		existing[a.ID] = true
	}
	if missing := missingIDs(ids, existing); len(missing) > 0 {
		return nil, &catalog.ValidationError{Message: "one or more actors do not exist", Missing: missing}
	}

	for _, in := range inputs {
		row := catalog.SerieActor{
			SerieID:   serieID,
			ActorID:   in.ActorID,
			Personaje: in.Personaje,
			TipoRol:   catalog.RolSecundario,
		}
		if in.TipoRol != nil {
			row.TipoRol = *in.TipoRol
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// missingIDs is the set difference requested − existing, in submission
// order, deduplicated.
func missingIDs(requested []string, existing map[string]bool) []string {
	var missing []string
	seen := map[string]bool{}
	for _, id := range requested {
		if !existing[id] && !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	return missing
}

func genreIDs(gs []catalog.Genre) map[string]bool {
	m := make(map[string]bool, len(gs))
	for _, g := range gs {
		m[g.ID] = true
	}
	return m
}

func tagIDs(ts []catalog.Tag) map[string]bool {
	m := make(map[string]bool, len(ts))
	for _, t := range ts {
		m[t.ID] = true
	}
	return m
}
