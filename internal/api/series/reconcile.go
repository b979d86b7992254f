package series

import (
	"errors"

	"github.com/apex/log"
	"gorm.io/gorm"

	"series-catalog/internal/domain/catalog"
	"series-catalog/internal/media"
)

// resolvedRelations holds the validated replacement sets of one
// request. A nil member means the relation was not submitted and keeps
// its current membership.
type resolvedRelations struct {
	generos *[]catalog.Genre
	tags    *[]catalog.Tag
	actores *[]catalog.SerieActor
}

// applyUpdate drives one update request to a single consistent write:
// lock the id, load the current record, validate every relation list
// before touching the filesystem, store replacement images, apply the
// merged change set in one transaction, and only then delete the
// replaced files. A failed write therefore never leaves the record
// pointing at a deleted image.
func (h *Handler) applyUpdate(id string, in *UpdateIntent) (*catalog.Serie, error) {
	l := h.locks.Lock(id)
	defer l.Unlock()

	var current catalog.Serie
	if err := h.db.First(&current, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}

	rel, err := h.resolveRelations(id, in)
	if err != nil {
		return nil, err
	}

	updates := scalarUpdates(in)

	// New files are named after the incoming title when this same
	// request changes it, else after the current one.
	nameHint := current.Titulo
	if in.Titulo.Present && in.Titulo.Value != nil {
		nameHint = *in.Titulo.Value
	}

	var oldPaths []string
	if err := h.applyMedia(in.Poster, media.KindPoster, "poster", current.Poster, nameHint, updates, &oldPaths); err != nil {
		return nil, err
	}
	if err := h.applyMedia(in.Banner, media.KindBanner, "banner", current.Banner, nameHint, updates, &oldPaths); err != nil {
		return nil, err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&catalog.Serie{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		return replaceRelations(tx, id, rel)
	})
	if err != nil {
		// Files stored earlier in this request are orphaned on disk;
		// the record still references the old, undeleted paths.
		log.WithField("serie", id).WithError(err).Error("update write failed")
		return nil, err
	}

	for _, p := range oldPaths {
		h.media.Delete(p)
	}

	return h.loadSerie(id)
}

// applyCreate is the same pipeline without a current record: validate
// relations, store images, create everything in one transaction.
func (h *Handler) applyCreate(in *UpdateIntent) (*catalog.Serie, error) {
	rel, err := h.resolveRelations("", in)
	if err != nil {
		return nil, err
	}

	s := catalog.Serie{
		Titulo:     *in.Titulo.Value,
		Temporadas: 1,
		Estado:     catalog.EstadoEnEmision,
	}
	if in.Sinopsis.Present {
		s.Sinopsis = in.Sinopsis.Value
	}
	if in.Anio.Present {
		s.Anio = in.Anio.Value
	}
	if in.Temporadas.Present && in.Temporadas.Value != nil {
		s.Temporadas = *in.Temporadas.Value
	}
	if in.Rating.Present {
		s.Rating = in.Rating.Value
	}
	if in.Pais.Present {
		s.Pais = in.Pais.Value
	}
	if in.TrailerURL.Present {
		s.TrailerURL = in.TrailerURL.Value
	}
	if in.Estado.Present && in.Estado.Value != nil {
		s.Estado = *in.Estado.Value
	}
	if in.Creador.Present {
		s.Creador = in.Creador.Value
	}
	if in.Productora.Present {
		s.Productora = in.Productora.Value
	}
	if in.DuracionPromedio.Present {
		s.DuracionPromedio = in.DuracionPromedio.Value
	}
	if in.FechaEstreno.Present {
		s.FechaEstreno = in.FechaEstreno.Value
	}

	if in.Poster.Op == MediaReplace {
		p, err := h.media.Store(in.Poster.Data, media.KindPoster, s.Titulo, in.Poster.OriginalFilename)
		if err != nil {
			return nil, err
		}
		s.Poster = &p
	}
	if in.Banner.Op == MediaReplace {
		p, err := h.media.Store(in.Banner.Data, media.KindBanner, s.Titulo, in.Banner.OriginalFilename)
		if err != nil {
			return nil, err
		}
		s.Banner = &p
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&s).Error; err != nil {
			return err
		}
		if rel.actores != nil {
			for i := range *rel.actores {
				(*rel.actores)[i].SerieID = s.ID
			}
		}
		return replaceRelations(tx, s.ID, rel)
	})
	if err != nil {
		log.WithField("titulo", s.Titulo).WithError(err).Error("create write failed")
		return nil, err
	}

	return h.loadSerie(s.ID)
}

// applyDelete disconnects all relation memberships, deletes the record
// and, once the delete has committed, removes the owned image files.
func (h *Handler) applyDelete(id string) error {
	l := h.locks.Lock(id)
	defer l.Unlock()

	var s catalog.Serie
	if err := h.db.First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.ErrNotFound
		}
		return err
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&catalog.Serie{ID: id}).Association("Generos").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&catalog.Serie{ID: id}).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("serie_id = ?", id).Delete(&catalog.SerieActor{}).Error; err != nil {
			return err
		}
		return tx.Delete(&catalog.Serie{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}

	if s.Poster != nil {
		h.media.Delete(*s.Poster)
	}
	if s.Banner != nil {
		h.media.Delete(*s.Banner)
	}
	return nil
}

// resolveRelations validates every submitted relation list up front, so
// a 400 for an unknown id happens before any filesystem side effect.
func (h *Handler) resolveRelations(serieID string, in *UpdateIntent) (resolvedRelations, error) {
	var rel resolvedRelations
	if in.GenreIDs != nil {
		gs, err := resolveGenres(h.db, *in.GenreIDs)
		if err != nil {
			return rel, err
		}
		rel.generos = &gs
	}
	if in.TagIDs != nil {
		ts, err := resolveTags(h.db, *in.TagIDs)
		if err != nil {
			return rel, err
		}
		rel.tags = &ts
	}
	if in.Actores != nil {
		rows, err := resolveActores(h.db, serieID, *in.Actores)
		if err != nil {
			return rel, err
		}
		rel.actores = &rows
	}
	return rel, nil
}

// replaceRelations applies full replace-set semantics: the final
// membership becomes exactly the submitted list.
func replaceRelations(tx *gorm.DB, id string, rel resolvedRelations) error {
	if rel.generos != nil {
		assoc := tx.Model(&catalog.Serie{ID: id}).Association("Generos")
		if len(*rel.generos) == 0 {
			if err := assoc.Clear(); err != nil {
				return err
			}
		} else if err := assoc.Replace(rel.generos); err != nil {
			return err
		}
	}
	if rel.tags != nil {
		assoc := tx.Model(&catalog.Serie{ID: id}).Association("Tags")
		if len(*rel.tags) == 0 {
			if err := assoc.Clear(); err != nil {
				return err
			}
		} else if err := assoc.Replace(rel.tags); err != nil {
			return err
		}
	}
	if rel.actores != nil {
		if err := tx.Where("serie_id = ?", id).Delete(&catalog.SerieActor{}).Error; err != nil {
			return err
		}
		if len(*rel.actores) > 0 {
			if err := tx.Create(rel.actores).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// applyMedia stores a replacement file or records a clear into the
// pending change set. Old paths are only collected here; they are not
// deleted until the database write has committed.
func (h *Handler) applyMedia(action MediaAction, kind media.Kind, column string, currentPath *string, nameHint string, updates map[string]interface{}, oldPaths *[]string) error {
	switch action.Op {
	case MediaReplace:
		p, err := h.media.Store(action.Data, kind, nameHint, action.OriginalFilename)
		if err != nil {
			return err
		}
		updates[column] = p
		if currentPath != nil {
			*oldPaths = append(*oldPaths, *currentPath)
		}
	case MediaClear:
		updates[column] = nil
		if currentPath != nil {
			*oldPaths = append(*oldPaths, *currentPath)
		}
	}
	return nil
}

func scalarUpdates(in *UpdateIntent) map[string]interface{} {
	u := map[string]interface{}{}
	put(u, "titulo", in.Titulo)
	put(u, "sinopsis", in.Sinopsis)
	put(u, "anio", in.Anio)
	put(u, "temporadas", in.Temporadas)
	put(u, "rating", in.Rating)
	put(u, "pais", in.Pais)
	put(u, "trailer_url", in.TrailerURL)
	put(u, "estado", in.Estado)
	put(u, "creador", in.Creador)
	put(u, "productora", in.Productora)
	put(u, "duracion_promedio", in.DuracionPromedio)
	put(u, "fecha_estreno", in.FechaEstreno)
	return u
}

func put[T any](u map[string]interface{}, column string, o Opt[T]) {
	if !o.Present {
		return
	}
	if o.Value == nil {
		u[column] = nil
		return
	}
	u[column] = *o.Value
}

func (h *Handler) loadSerie(id string) (*catalog.Serie, error) {
	var s catalog.Serie
	err := h.db.
		Preload("Generos").
		Preload("Tags").
		Preload("Actores.Actor").
		First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
