package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
)

// Keys the extraction prompt asks the model to use.
const (
	keyName         = "Nombre"
	keyProfileURL   = "URL del perfil"
	keyProfile      = "Perfil"
	keyPublications = "Publicaciones"
	keyProjects     = "Proyectos"
	keyTheses       = "Tesis"
	keyPatents      = "Patentes"

	keyEmail = "Email"

	keyTitle     = "Título"
	keyAuthors   = "Autores/as"
	keyPublished = "Fecha de publicación"
	keyAbstract  = "Resumen"
)

// Researcher is one profile record returned by the model. Keys mirror the
// extraction prompt, which asks for Spanish field names.
//
// Decoding never rejects a record. Values the typed fields cannot hold
// exactly are kept verbatim in Extra, and an element that is not a JSON
// object is kept as-is, so a record re-encodes to the JSON it came from.
type Researcher struct {
	Name         string
	ProfileURL   string
	Profile      *Profile
	Publications *[]Publication
	Projects     *RawList
	Theses       *RawList
	Patents      *RawList

	// Extra holds unknown keys plus known keys whose value was empty, null
	// or of an unexpected type. On output an Extra entry wins over the
	// typed field of the same key.
	Extra map[string]json.RawMessage

	raw json.RawMessage
}

// IsRecord reports whether the element was a JSON object.
func (r Researcher) IsRecord() bool {
	return r.raw == nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Researcher) UnmarshalJSON(data []byte) error {
	*r = Researcher{}
	fields, ok := objectFields(data)
	if !ok {
		r.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
		return nil
	}

	for key, val := range fields {
		var exact bool
		switch key {
		case keyName:
			exact = decodeText(val, &r.Name)
		case keyProfileURL:
			exact = decodeText(val, &r.ProfileURL)
		case keyProfile:
			exact = decodeValue(val, &r.Profile)
		case keyPublications:
			exact = decodeValue(val, &r.Publications)
		case keyProjects:
			exact = decodeValue(val, &r.Projects)
		case keyTheses:
			exact = decodeValue(val, &r.Theses)
		case keyPatents:
			exact = decodeValue(val, &r.Patents)
		}
		if !exact {
			r.Extra = withExtra(r.Extra, key, val)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Researcher) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	w := newObjectWriter(r.Extra)
	w.text(keyName, r.Name)
	w.text(keyProfileURL, r.ProfileURL)
	w.value(keyProfile, r.Profile, r.Profile != nil)
	w.value(keyPublications, r.Publications, r.Publications != nil)
	w.value(keyProjects, r.Projects, r.Projects != nil)
	w.value(keyTheses, r.Theses, r.Theses != nil)
	w.value(keyPatents, r.Patents, r.Patents != nil)
	return w.finish()
}

// Profile holds the nested contact block of a researcher.
type Profile struct {
	Email string
	Extra map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler. Anything but an object is an
// error, which leaves the enclosing key in Researcher.Extra.
func (p *Profile) UnmarshalJSON(data []byte) error {
	fields, ok := objectFields(data)
	if !ok {
		return errNotObject
	}
	*p = Profile{}
	for key, val := range fields {
		if key == keyEmail && decodeText(val, &p.Email) {
			continue
		}
		p.Extra = withExtra(p.Extra, key, val)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Profile) MarshalJSON() ([]byte, error) {
	w := newObjectWriter(p.Extra)
	w.text(keyEmail, p.Email)
	return w.finish()
}

// Publication is one entry of a researcher's publication list.
type Publication struct {
	Title     string
	Authors   string
	Published string
	Abstract  string
	Extra     map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler. A list holding a non-object
// fails as a whole and is kept verbatim by the enclosing record.
func (p *Publication) UnmarshalJSON(data []byte) error {
	fields, ok := objectFields(data)
	if !ok {
		return errNotObject
	}
	*p = Publication{}
	for key, val := range fields {
		var exact bool
		switch key {
		case keyTitle:
			exact = decodeText(val, &p.Title)
		case keyAuthors:
			exact = decodeText(val, &p.Authors)
		case keyPublished:
			exact = decodeText(val, &p.Published)
		case keyAbstract:
			exact = decodeText(val, &p.Abstract)
		}
		if !exact {
			p.Extra = withExtra(p.Extra, key, val)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Publication) MarshalJSON() ([]byte, error) {
	w := newObjectWriter(p.Extra)
	w.text(keyTitle, p.Title)
	w.text(keyAuthors, p.Authors)
	w.text(keyPublished, p.Published)
	w.text(keyAbstract, p.Abstract)
	return w.finish()
}

// RawList is a list whose element shape the prompt leaves open. A nil
// *RawList means the model omitted the key; an empty one means it sent [].
type RawList []json.RawMessage

// Len reports the number of elements, treating nil as empty.
func (l *RawList) Len() int {
	if l == nil {
		return 0
	}
	return len(*l)
}

var errNotObject = eris.New("model: JSON value is not an object")

func objectFields(data []byte) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func withExtra(extra map[string]json.RawMessage, key string, val json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		extra = make(map[string]json.RawMessage)
	}
	extra[key] = val
	return extra
}

// decodeText stores a JSON string, number or boolean in dst as text. It
// reports whether dst alone re-encodes to the same JSON value.
func decodeText(val json.RawMessage, dst *string) bool {
	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		*dst = s
		return s != ""
	}

	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return false
	}
	switch x := v.(type) {
	case json.Number:
		*dst = x.String()
	case bool:
		*dst = strconv.FormatBool(x)
	}
	return false
}

// decodeValue decodes val into dst, leaving dst untouched on failure. A
// JSON null is never exact, so its presence survives in Extra.
func decodeValue[T any](val json.RawMessage, dst *T) bool {
	if bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
		return false
	}
	var v T
	if err := json.Unmarshal(val, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// objectWriter emits known keys in prompt order followed by the remaining
// extra keys in sorted order.
type objectWriter struct {
	buf   bytes.Buffer
	extra map[string]json.RawMessage
	done  map[string]bool
	err   error
}

func newObjectWriter(extra map[string]json.RawMessage) *objectWriter {
	w := &objectWriter{extra: extra, done: make(map[string]bool)}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) text(key, s string) {
	w.value(key, s, s != "")
}

func (w *objectWriter) value(key string, v any, present bool) {
	if raw, ok := w.extra[key]; ok {
		w.done[key] = true
		w.field(key, raw)
		return
	}
	if present {
		w.field(key, v)
	}
}

func (w *objectWriter) field(key string, v any) {
	if w.err != nil {
		return
	}
	k, err := encode(key)
	if err != nil {
		w.err = err
		return
	}
	val, err := encode(v)
	if err != nil {
		w.err = err
		return
	}
	if w.buf.Len() > 1 {
		w.buf.WriteByte(',')
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(val)
}

func (w *objectWriter) finish() ([]byte, error) {
	keys := make([]string, 0, len(w.extra))
	for k := range w.extra {
		if !w.done[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.field(k, w.extra[k])
	}
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

// encode marshals v without escaping HTML characters.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
