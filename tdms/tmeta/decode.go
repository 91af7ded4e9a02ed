package tmeta

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"go-tdms/ds"
	"go-tdms/tdms/tbytes"
	"go-tdms/tdms/tindex"
	"go-tdms/tdms/tlead"
	"go-tdms/tdms/tvalue"
)

// Parser decodes segment metadata blocks in file order, feeding the object
// registry and carrying the active channel list from segment to segment.
// It must see segments strictly sequentially: "same as previous" resolution
// and list inheritance both depend on exact prior state.
type Parser struct {
	registry *Registry
	log      *zap.Logger

	active    []string
	hasActive bool
	// noData remembers which paths declared "no samples" most recently; the
	// flag persists until a concrete or same-as-previous index overrides it.
	noData map[string]bool

	properties *ds.LinkedHashMap[string, *Properties]
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{
		registry:   NewRegistry(),
		log:        log,
		noData:     map[string]bool{},
		properties: ds.NewLinkedHashMap[string, *Properties](),
	}
}

func (p *Parser) Registry() *Registry {
	return p.registry
}

// Paths lists every object seen in any metadata block, in first-appearance
// order. Groups and the root object appear here even though they carry no
// raw data.
func (p *Parser) Paths() []string {
	return p.properties.Keys()
}

// Properties returns the accumulated property map for a path.
func (p *Parser) Properties(path string) (*Properties, bool) {
	return p.properties.Get(path)
}

// DecodeSegment parses one segment's metadata block: the object count, then
// per object its path, raw-data index and property list. The active channel
// list is rebuilt when the TOC carries the new-object-list flag, otherwise
// membership is inherited and this block only updates layouts and
// properties.
func (p *Parser) DecodeSegment(reader *tbytes.Reader, toc tlead.TocMask) (*SegmentMeta, error) {
	newList := toc.Has(tlead.TocNewObjList)
	if !newList && !p.hasActive {
		return nil, ErrMalformedSegment{
			Reason: "new-object-list flag unset but no prior active channel list exists",
		}
	}
	if newList {
		p.active = nil
		p.noData = map[string]bool{}
	}

	objectCount, err := reader.ReadUint32()
	if err != nil {
		return nil, errors.Wrap(err, "DecodeSegment error: read object count")
	}

	objects := make([]Object, 0, objectCount)
	for i := uint32(0); i < objectCount; i++ {
		object, err := p.decodeObject(reader, toc)
		if err != nil {
			return nil, errors.Wrapf(err, "DecodeSegment error: object %d of %d", i, objectCount)
		}
		objects = append(objects, *object)

		if newList {
			p.active = append(p.active, object.Path)
		}
	}
	p.hasActive = true

	return &SegmentMeta{
		Objects: objects,
		Active:  p.activeChannels(),
	}, nil
}

// CarryOver resolves a segment that has no metadata block: the previous
// segment's active list and layouts stay in force unchanged.
func (p *Parser) CarryOver() (*SegmentMeta, error) {
	if !p.hasActive {
		return nil, ErrMalformedSegment{
			Reason: "segment without metadata but no prior active channel list exists",
		}
	}
	return &SegmentMeta{Active: p.activeChannels()}, nil
}

func (p *Parser) decodeObject(reader *tbytes.Reader, toc tlead.TocMask) (*Object, error) {
	path, err := reader.ReadString()
	if err != nil {
		return nil, errors.Wrap(err, "decodeObject error: read object path")
	}

	index, err := tindex.Decode(reader, toc.Has(tlead.TocDAQmxRawData))
	if err != nil {
		return nil, errors.Wrapf(err, `decodeObject error: raw data index of "%s"`, path)
	}
	resolved, err := p.registry.Resolve(path, index)
	if err != nil {
		return nil, err
	}
	p.noData[path] = index.Kind == tindex.KindNoData

	p.log.Debug(
		"object",
		zap.String("path", path),
		zap.Uint64("value_count", resolved.ValueCount),
		zap.Bool("no_data", index.Kind == tindex.KindNoData),
	)

	if err := p.decodeProperties(reader, path); err != nil {
		return nil, errors.Wrapf(err, `decodeObject error: properties of "%s"`, path)
	}

	return &Object{
		Path:   path,
		Index:  resolved,
		NoData: index.Kind == tindex.KindNoData,
	}, nil
}

func (p *Parser) decodeProperties(reader *tbytes.Reader, path string) error {
	propertyCount, err := reader.ReadUint32()
	if err != nil {
		return errors.Wrap(err, "read property count")
	}

	properties, ok := p.properties.Get(path)
	if !ok {
		properties = ds.NewLinkedHashMap[string, tvalue.Value]()
		p.properties.Put(path, properties)
	}

	for i := uint32(0); i < propertyCount; i++ {
		name, err := reader.ReadString()
		if err != nil {
			return errors.Wrapf(err, "read name of property %d", i)
		}
		rawType, err := reader.ReadUint32()
		if err != nil {
			return errors.Wrapf(err, `read type of property "%s"`, name)
		}
		dtype, err := tvalue.FromRaw(rawType)
		if err != nil {
			return err
		}
		value, err := tvalue.DecodeScalar(reader, dtype)
		if err != nil {
			return errors.Wrapf(err, `read value of property "%s"`, name)
		}
		// last write wins per name, across segments
		properties.Put(name, value)
	}

	return nil
}

// activeChannels snapshots the current active list with each member's
// layout in force. A member with no concrete layout on record yet (declared
// with "no data" only) stays in the list but is marked accordingly.
func (p *Parser) activeChannels() []ActiveChannel {
	return lo.Map(p.active, func(path string, _ int) ActiveChannel {
		index, ok := p.registry.Lookup(path)
		return ActiveChannel{
			Path:   path,
			Index:  index,
			NoData: p.noData[path] || !ok,
		}
	})
}
