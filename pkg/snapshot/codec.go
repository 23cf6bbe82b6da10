package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/marmos91/dittoreg/pkg/store/record"
	xdr "github.com/rasky/go-xdr/xdr2"
	"gopkg.in/yaml.v3"
)

// Format names a snapshot encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXDR  Format = "xdr"
)

// Formats lists the supported encodings.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatXDR}
}

// Codec encodes and decodes snapshots.
type Codec interface {
	Format() Format
	Encode(w io.Writer, state *State) error
	Decode(r io.Reader) (*State, error)
}

// CodecFor returns the codec for format.
func CodecFor(format Format) (Codec, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatJSON:
		return jsonCodec{}, nil
	case FormatYAML, "yml":
		return yamlCodec{}, nil
	case FormatXDR:
		return xdrCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown snapshot format: %q (supported: json, yaml, xdr)", format)
	}
}

// FormatOf infers the format of a snapshot object from its file extension.
func FormatOf(name string) (Format, error) {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	codec, err := CodecFor(Format(ext))
	if err != nil {
		return "", fmt.Errorf("cannot infer snapshot format of %q: %w", name, err)
	}
	return codec.Format(), nil
}

// ============================================================================
// Text encodings (json, yaml)
// ============================================================================

// document is the json/yaml layout of a snapshot.
type document struct {
	Version int              `json:"version" yaml:"version"`
	NextID  uint64           `json:"next_id" yaml:"next_id"`
	Records []documentRecord `json:"records" yaml:"records"`
}

type documentRecord struct {
	ID          uint64    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Kind        string    `json:"kind" yaml:"kind"`
	Size        uint64    `json:"size" yaml:"size"`
	Description string    `json:"description" yaml:"description"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Owner       string    `json:"owner" yaml:"owner"`
}

// RFC 3339 timestamps carry four-digit years only.
const (
	minDocumentYear = 0
	maxDocumentYear = 9999
)

func toDocument(state *State) (*document, error) {
	doc := &document{
		Version: state.Version,
		NextID:  uint64(state.NextID),
		Records: make([]documentRecord, 0, len(state.Records)),
	}
	for _, rec := range state.Records {
		if year := rec.CreatedAt.UTC().Year(); year < minDocumentYear || year > maxDocumentYear {
			return nil, fmt.Errorf("record %d: created_at year %d cannot be written as text (use the xdr format)", rec.ID, year)
		}
		doc.Records = append(doc.Records, documentRecord{
			ID:          uint64(rec.ID),
			Name:        rec.Name,
			Kind:        rec.Kind.String(),
			Size:        rec.Size,
			Description: rec.Description,
			CreatedAt:   rec.CreatedAt.UTC(),
			Owner:       string(rec.Owner),
		})
	}
	return doc, nil
}

func fromDocument(doc *document) *State {
	state := &State{
		Version: doc.Version,
		NextID:  record.ID(doc.NextID),
		Records: make([]*record.Record, 0, len(doc.Records)),
	}
	for _, r := range doc.Records {
		state.Records = append(state.Records, &record.Record{
			ID:          record.ID(r.ID),
			Name:        r.Name,
			Kind:        record.ParseKind(r.Kind),
			Size:        r.Size,
			Description: r.Description,
			CreatedAt:   r.CreatedAt.UTC(),
			Owner:       record.Identity(r.Owner),
		})
	}
	return state
}

type jsonCodec struct{}

func (jsonCodec) Format() Format { return FormatJSON }

func (jsonCodec) Encode(w io.Writer, state *State) error {
	doc, err := toDocument(state)
	if err != nil {
		return fmt.Errorf("encode json snapshot: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json snapshot: %w", err)
	}
	return nil
}

func (jsonCodec) Decode(r io.Reader) (*State, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json snapshot: %w", err)
	}
	return fromDocument(&doc), nil
}

type yamlCodec struct{}

func (yamlCodec) Format() Format { return FormatYAML }

func (yamlCodec) Encode(w io.Writer, state *State) error {
	doc, err := toDocument(state)
	if err != nil {
		return fmt.Errorf("encode yaml snapshot: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml snapshot: %w", err)
	}
	return enc.Close()
}

func (yamlCodec) Decode(r io.Reader) (*State, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml snapshot: %w", err)
	}
	return fromDocument(&doc), nil
}

// ============================================================================
// XDR encoding
// ============================================================================

// xdrState is the XDR layout of a snapshot. Kinds travel as their numeric
// value and timestamps as Unix seconds plus nanoseconds.
type xdrState struct {
	Version uint32
	NextID  uint64
	Records []xdrRecord
}

type xdrRecord struct {
	ID          uint64
	Name        string
	Kind        uint32
	Size        uint64
	Description string
	CreatedAt   xdrTime
	Owner       string
}

type xdrTime struct {
	Sec  int64
	Nsec uint32
}

type xdrCodec struct{}

func (xdrCodec) Format() Format { return FormatXDR }

func (xdrCodec) Encode(w io.Writer, state *State) error {
	msg := xdrState{
		Version: uint32(state.Version),
		NextID:  uint64(state.NextID),
		Records: make([]xdrRecord, 0, len(state.Records)),
	}
	for _, rec := range state.Records {
		msg.Records = append(msg.Records, xdrRecord{
			ID:          uint64(rec.ID),
			Name:        rec.Name,
			Kind:        uint32(rec.Kind),
			Size:        rec.Size,
			Description: rec.Description,
			CreatedAt:   xdrTime{Sec: rec.CreatedAt.Unix(), Nsec: uint32(rec.CreatedAt.Nanosecond())},
			Owner:       string(rec.Owner),
		})
	}

	if _, err := xdr.Marshal(w, &msg); err != nil {
		return fmt.Errorf("encode xdr snapshot: %w", err)
	}
	return nil
}

func (xdrCodec) Decode(r io.Reader) (*State, error) {
	var msg xdrState
	if _, err := xdr.Unmarshal(r, &msg); err != nil {
		return nil, fmt.Errorf("decode xdr snapshot: %w", err)
	}

	state := &State{
		Version: int(msg.Version),
		NextID:  record.ID(msg.NextID),
		Records: make([]*record.Record, 0, len(msg.Records)),
	}
	for _, r := range msg.Records {
		state.Records = append(state.Records, &record.Record{
			ID:          record.ID(r.ID),
			Name:        r.Name,
			Kind:        record.Kind(r.Kind).Normalize(),
			Size:        r.Size,
			Description: r.Description,
			CreatedAt:   time.Unix(r.CreatedAt.Sec, int64(r.CreatedAt.Nsec)).UTC(),
			Owner:       record.Identity(r.Owner),
		})
	}
	return state, nil
}
