package series

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"series-catalog/internal/domain/catalog"
)

// Opt is an optional scalar of an update request. Present distinguishes
// "field submitted" from "field absent"; a Present field with a nil
// Value was explicitly submitted as null (empty text for a nullable
// field).
type Opt[T any] struct {
	Present bool
	Value   *T
}

func set[T any](v T) Opt[T] { return Opt[T]{Present: true, Value: &v} }
func null[T any]() Opt[T]   { return Opt[T]{Present: true} }
func absent[T any]() Opt[T] { return Opt[T]{} }

type MediaOp int

const (
	MediaKeep MediaOp = iota
	MediaReplace
	MediaClear
)

// MediaAction is what one update request does to one image kind:
// replace it with new bytes, clear it, or leave it alone.
type MediaAction struct {
	Op               MediaOp
	Data             []byte
	OriginalFilename string
}

// ActorInput is one entry of the "actores" JSON list field.
type ActorInput struct {
	ActorID   string  `json:"actorId"`
	Personaje *string `json:"personaje"`
	TipoRol   *string `json:"tipoRol"`
}

// UpdateIntent is the parsed, validated shape of one create or update
// request. Scalars carry the submitted/absent/null distinction, media
// kinds carry keep/replace/clear, and relation lists are nil when the
// key was absent (leave unchanged) versus empty (clear all).
type UpdateIntent struct {
	Titulo           Opt[string]
	Sinopsis         Opt[string]
	Anio             Opt[int]
	Temporadas       Opt[int]
	Rating           Opt[float64]
	Pais             Opt[string]
	TrailerURL       Opt[string]
	Estado           Opt[string]
	Creador          Opt[string]
	Productora       Opt[string]
	DuracionPromedio Opt[int]
	FechaEstreno     Opt[time.Time]

	Poster MediaAction
	Banner MediaAction

	GenreIDs *[]string
	TagIDs   *[]string
	Actores  *[]ActorInput
}

const maxImageBytes = 10 << 20

// parseIntent turns a multipart body into an UpdateIntent. forCreate
// makes titulo mandatory; on update an absent titulo means "unchanged"
// but a submitted empty one is still rejected.
func parseIntent(c *gin.Context, forCreate bool) (*UpdateIntent, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, &catalog.ValidationError{Message: "invalid multipart body: " + err.Error()}
	}

	in := &UpdateIntent{}

	if titulo, ok := formValue(form, "titulo"); ok {
		titulo = strings.TrimSpace(titulo)
		if titulo == "" {
			return nil, &catalog.ValidationError{Field: "titulo", Message: "el título es obligatorio"}
		}
		in.Titulo = set(titulo)
	} else if forCreate {
		return nil, &catalog.ValidationError{Field: "titulo", Message: "el título es obligatorio"}
	}

	in.Sinopsis = stringField(form, "sinopsis")
	in.Pais = stringField(form, "pais")
	in.Creador = stringField(form, "creador")
	in.Productora = stringField(form, "productora")

	if v, ok := formValue(form, "trailerUrl"); ok {
		if v == "" {
			in.TrailerURL = null[string]()
		} else {
			if _, err := url.ParseRequestURI(v); err != nil {
				return nil, &catalog.ValidationError{Field: "trailerUrl", Message: "URL inválida"}
			}
			in.TrailerURL = set(v)
		}
	}

	if v, ok := formValue(form, "estado"); ok && v != "" {
		if !catalog.ValidEstado(v) {
			return nil, &catalog.ValidationError{Field: "estado", Message: "estado desconocido: " + v}
		}
		in.Estado = set(v)
	}

	in.Anio = intField(form, "año")
	if in.Anio.Present && in.Anio.Value != nil {
		if y := *in.Anio.Value; y < 1900 || y > time.Now().Year()+5 {
			return nil, &catalog.ValidationError{Field: "año", Message: "año fuera de rango"}
		}
	}

	in.Temporadas = intField(form, "temporadas")
	if in.Temporadas.Present {
		if in.Temporadas.Value == nil || *in.Temporadas.Value < 1 {
			// Not nullable: coerce a cleared or nonsense count to the
			// minimum instead of writing null.
			in.Temporadas = set(1)
		}
	}

	in.DuracionPromedio = intField(form, "duracionPromedio")

	if v, ok := formValue(form, "rating"); ok {
		switch f, err := strconv.ParseFloat(v, 64); {
		case v == "":
			in.Rating = null[float64]()
		case err != nil:
			// unparseable numerics are treated as absent, not zero
		case f < 0 || f > 10:
			return nil, &catalog.ValidationError{Field: "rating", Message: "rating debe estar entre 0 y 10"}
		default:
			in.Rating = set(f)
		}
	}

	if v, ok := formValue(form, "fechaEstreno"); ok {
		if v == "" {
			in.FechaEstreno = null[time.Time]()
		} else if t, err := time.Parse("2006-01-02", v); err == nil {
			in.FechaEstreno = set(t)
		}
	}

	if in.Poster, err = mediaField(form, "poster", "posterFile"); err != nil {
		return nil, err
	}
	if in.Banner, err = mediaField(form, "banner", "bannerFile"); err != nil {
		return nil, err
	}

	in.GenreIDs = relationField(form, "genreIds[]")
	in.TagIDs = relationField(form, "tagIds[]")

	if in.Actores, err = actoresField(form); err != nil {
		return nil, err
	}

	return in, nil
}

func formValue(form *multipart.Form, key string) (string, bool) {
	vs, ok := form.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// stringField reads a nullable text field. Submitted empty string means
// explicit null, absence means untouched.
func stringField(form *multipart.Form, key string) Opt[string] {
	v, ok := formValue(form, key)
	if !ok {
		return absent[string]()
	}
	if v == "" {
		return null[string]()
	}
	return set(v)
}

// intField reads a nullable numeric field leniently: empty string is
// explicit null, an unparseable value is treated as if the field had
// not been submitted.
func intField(form *multipart.Form, key string) Opt[int] {
	v, ok := formValue(form, key)
	if !ok {
		return absent[int]()
	}
	if v == "" {
		return null[int]()
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return absent[int]()
	}
	return set(n)
}

// mediaField decides the action for one image kind: a non-empty file
// part wins, an empty-string text part under the plain key is the
// removal signal, anything else keeps the current asset.
func mediaField(form *multipart.Form, textKey, fileKey string) (MediaAction, error) {
	if fhs := form.File[fileKey]; len(fhs) > 0 && fhs[0].Size > 0 {
		fh := fhs[0]
		if fh.Size > maxImageBytes {
			return MediaAction{}, &catalog.ValidationError{Field: fileKey, Message: "imagen demasiado grande"}
		}
		f, err := fh.Open()
		if err != nil {
			return MediaAction{}, &catalog.ValidationError{Field: fileKey, Message: "no se pudo leer el archivo"}
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return MediaAction{}, &catalog.ValidationError{Field: fileKey, Message: "no se pudo leer el archivo"}
		}
		return MediaAction{Op: MediaReplace, Data: data, OriginalFilename: fh.Filename}, nil
	}

	if v, ok := formValue(form, textKey); ok && v == "" {
		return MediaAction{Op: MediaClear}, nil
	}
	return MediaAction{Op: MediaKeep}, nil
}

// relationField reads an id list. A missing key returns nil (leave the
// relation untouched); a present key with zero entries returns an empty
// list (clear all memberships).
func relationField(form *multipart.Form, key string) *[]string {
	vs, ok := form.Value[key]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(vs))
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			ids = append(ids, v)
		}
	}
	return &ids
}

// actoresField reads the "actores" JSON list. Same absent/empty split
// as the id lists.
func actoresField(form *multipart.Form) (*[]ActorInput, error) {
	v, ok := formValue(form, "actores")
	if !ok {
		return nil, nil
	}
	var inputs []ActorInput
	if v != "" {
		if err := json.Unmarshal([]byte(v), &inputs); err != nil {
			return nil, &catalog.ValidationError{Field: "actores", Message: "lista de actores inválida"}
		}
	}
	if inputs == nil {
		inputs = []ActorInput{}
	}
	for _, a := range inputs {
		if a.ActorID == "" {
			return nil, &catalog.ValidationError{Field: "actores", Message: "el ID del actor es obligatorio"}
		}
		if a.TipoRol != nil && !catalog.ValidTipoRol(*a.TipoRol) {
			return nil, &catalog.ValidationError{Field: "actores", Message: "tipo de rol desconocido: " + *a.TipoRol}
		}
	}
	return &inputs, nil
}
