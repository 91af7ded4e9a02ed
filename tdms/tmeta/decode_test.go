package tmeta

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-tdms/tdms/tbytes"
	"go-tdms/tdms/tindex"
	"go-tdms/tdms/tlead"
	"go-tdms/tdms/tvalue"
)

// metaBuilder assembles little-endian metadata blocks for tests.
type metaBuilder struct {
	bs []byte
}

func (b *metaBuilder) u32(values ...uint32) *metaBuilder {
	for _, value := range values {
		word := make([]byte, 4)
		binary.LittleEndian.PutUint32(word, value)
		b.bs = append(b.bs, word...)
	}
	return b
}

func (b *metaBuilder) u64(value uint64) *metaBuilder {
	word := make([]byte, 8)
	binary.LittleEndian.PutUint64(word, value)
	b.bs = append(b.bs, word...)
	return b
}

func (b *metaBuilder) str(s string) *metaBuilder {
	b.u32(uint32(len(s)))
	b.bs = append(b.bs, s...)
	return b
}

func (b *metaBuilder) fixedIndex(dtype tvalue.DataType, count uint64) *metaBuilder {
	return b.u32(16, uint32(dtype), 1).u64(count)
}

func (b *metaBuilder) reader() *tbytes.Reader {
	return tbytes.NewReader(tbytes.NewBytesSource(b.bs))
}

const newListToc = tlead.TocMask(uint32(tlead.TocMetaData) | uint32(tlead.TocNewObjList))

func TestRegistry_Resolve(t *testing.T) {
	registry := NewRegistry()
	concrete := tindex.Index{Kind: tindex.KindFixed, DataType: tvalue.I32, ValueCount: 4}

	_, err := registry.Resolve("/'g'/'a'", tindex.Index{Kind: tindex.KindSamePrevious})
	missing := ErrNoPreviousObject{}
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "/'g'/'a'", missing.Path)

	resolved, err := registry.Resolve("/'g'/'a'", concrete)
	require.NoError(t, err)
	assert.Equal(t, concrete, resolved)

	resolved, err = registry.Resolve("/'g'/'a'", tindex.Index{Kind: tindex.KindSamePrevious})
	require.NoError(t, err)
	assert.Equal(t, concrete, resolved)
}

func TestRegistry_Paths(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Resolve("/'g'/'b'", tindex.Index{Kind: tindex.KindFixed, DataType: tvalue.I32, ValueCount: 1})
	require.NoError(t, err)
	_, err = registry.Resolve("/'g'/'a'", tindex.Index{Kind: tindex.KindFixed, DataType: tvalue.I32, ValueCount: 1})
	require.NoError(t, err)
	// no-data entries never enter the registry
	_, err = registry.Resolve("/'g'/'quiet'", tindex.Index{Kind: tindex.KindNoData})
	require.NoError(t, err)

	assert.Equal(t, []string{"/'g'/'b'", "/'g'/'a'"}, registry.Paths())
}

func TestRegistry_NoDataDoesNotOverwrite(t *testing.T) {
	registry := NewRegistry()
	concrete := tindex.Index{Kind: tindex.KindFixed, DataType: tvalue.U8, ValueCount: 2}

	_, err := registry.Resolve("/'g'/'a'", concrete)
	require.NoError(t, err)

	resolved, err := registry.Resolve("/'g'/'a'", tindex.Index{Kind: tindex.KindNoData})
	require.NoError(t, err)
	assert.Equal(t, tindex.KindNoData, resolved.Kind)

	// the concrete layout is still on record, so reuse resolves
	resolved, err = registry.Resolve("/'g'/'a'", tindex.Index{Kind: tindex.KindSamePrevious})
	require.NoError(t, err)
	assert.Equal(t, concrete, resolved)
}

func TestParser_DecodeSegment(t *testing.T) {
	builder := metaBuilder{}
	builder.u32(2)
	builder.str("/'group'").u32(0).u32(1).
		str("description").u32(uint32(tvalue.String)).str("run 1")
	builder.str("/'group'/'volts'").fixedIndex(tvalue.DoubleFloat, 8).u32(0)

	parser := NewParser(nil)
	meta, err := parser.DecodeSegment(builder.reader(), newListToc)
	require.NoError(t, err)

	require.Len(t, meta.Objects, 2)
	assert.Equal(t, "/'group'", meta.Objects[0].Path)
	assert.True(t, meta.Objects[0].NoData)
	assert.Equal(t, "/'group'/'volts'", meta.Objects[1].Path)
	assert.Equal(t, uint64(8), meta.Objects[1].Index.ValueCount)

	require.Len(t, meta.Active, 2)
	assert.True(t, meta.Active[0].NoData)
	assert.False(t, meta.Active[1].NoData)

	properties, ok := parser.Properties("/'group'")
	require.True(t, ok)
	value, ok := properties.Get("description")
	require.True(t, ok)
	assert.Equal(t, "run 1", value.Data)
}

func TestParser_ReusePreviousLayout(t *testing.T) {
	parser := NewParser(nil)

	first := metaBuilder{}
	first.u32(1).str("/'g'/'a'").fixedIndex(tvalue.I16, 3).u32(0)
	_, err := parser.DecodeSegment(first.reader(), newListToc)
	require.NoError(t, err)

	second := metaBuilder{}
	second.u32(1).str("/'g'/'a'").u32(0xFFFFFFFF).u32(0)
	meta, err := parser.DecodeSegment(second.reader(), newListToc)
	require.NoError(t, err)

	require.Len(t, meta.Active, 1)
	assert.Equal(t, tvalue.I16, meta.Active[0].Index.DataType)
	assert.Equal(t, uint64(3), meta.Active[0].Index.ValueCount)
	assert.False(t, meta.Active[0].NoData)

	stored, ok := parser.Registry().Lookup("/'g'/'a'")
	require.True(t, ok)
	assert.Equal(t, tindex.KindFixed, stored.Kind)
}

func TestParser_ReuseWithoutPrevious(t *testing.T) {
	parser := NewParser(nil)

	builder := metaBuilder{}
	builder.u32(1).str("/'g'/'a'").u32(0xFFFFFFFF).u32(0)
	_, err := parser.DecodeSegment(builder.reader(), newListToc)
	missing := ErrNoPreviousObject{}
	assert.True(t, errors.As(err, &missing))
}

func TestParser_InheritedListWithoutPredecessor(t *testing.T) {
	parser := NewParser(nil)

	builder := metaBuilder{}
	builder.u32(0)
	_, err := parser.DecodeSegment(builder.reader(), tlead.TocMask(uint32(tlead.TocMetaData)))
	malformed := ErrMalformedSegment{}
	assert.True(t, errors.As(err, &malformed))
}

func TestParser_MembershipFrozenWithoutNewListFlag(t *testing.T) {
	parser := NewParser(nil)

	first := metaBuilder{}
	first.u32(2).
		str("/'g'/'a'").fixedIndex(tvalue.I32, 2).u32(0).
		str("/'g'/'b'").fixedIndex(tvalue.I32, 2).u32(0)
	_, err := parser.DecodeSegment(first.reader(), newListToc)
	require.NoError(t, err)

	// metadata names only one object; the list keeps both, layout updated
	second := metaBuilder{}
	second.u32(1).str("/'g'/'a'").fixedIndex(tvalue.I32, 5).u32(0)
	meta, err := parser.DecodeSegment(second.reader(), tlead.TocMask(uint32(tlead.TocMetaData)))
	require.NoError(t, err)

	require.Len(t, meta.Active, 2)
	assert.Equal(t, "/'g'/'a'", meta.Active[0].Path)
	assert.Equal(t, uint64(5), meta.Active[0].Index.ValueCount)
	assert.Equal(t, "/'g'/'b'", meta.Active[1].Path)
	assert.Equal(t, uint64(2), meta.Active[1].Index.ValueCount)
}

func TestParser_NoDataPersistsUntilOverridden(t *testing.T) {
	parser := NewParser(nil)

	first := metaBuilder{}
	first.u32(1).str("/'g'/'a'").fixedIndex(tvalue.I32, 2).u32(0)
	_, err := parser.DecodeSegment(first.reader(), newListToc)
	require.NoError(t, err)

	second := metaBuilder{}
	second.u32(1).str("/'g'/'a'").u32(0).u32(0)
	meta, err := parser.DecodeSegment(second.reader(), tlead.TocMask(uint32(tlead.TocMetaData)))
	require.NoError(t, err)
	require.Len(t, meta.Active, 1)
	assert.True(t, meta.Active[0].NoData)

	// a segment without metadata inherits the no-data state
	meta, err = parser.CarryOver()
	require.NoError(t, err)
	require.Len(t, meta.Active, 1)
	assert.True(t, meta.Active[0].NoData)

	third := metaBuilder{}
	third.u32(1).str("/'g'/'a'").u32(0xFFFFFFFF).u32(0)
	meta, err = parser.DecodeSegment(third.reader(), tlead.TocMask(uint32(tlead.TocMetaData)))
	require.NoError(t, err)
	require.Len(t, meta.Active, 1)
	assert.False(t, meta.Active[0].NoData)
	assert.Equal(t, uint64(2), meta.Active[0].Index.ValueCount)
}

func TestParser_CarryOverWithoutPredecessor(t *testing.T) {
	parser := NewParser(nil)

	_, err := parser.CarryOver()
	malformed := ErrMalformedSegment{}
	assert.True(t, errors.As(err, &malformed))
}

func TestParser_PropertiesLastWriteWins(t *testing.T) {
	parser := NewParser(nil)

	first := metaBuilder{}
	first.u32(1).str("/'g'").u32(0).u32(2).
		str("unit").u32(uint32(tvalue.String)).str("V").
		str("gain").u32(uint32(tvalue.DoubleFloat)).u64(0x3FF0000000000000)
	_, err := parser.DecodeSegment(first.reader(), newListToc)
	require.NoError(t, err)

	second := metaBuilder{}
	second.u32(1).str("/'g'").u32(0).u32(1).
		str("unit").u32(uint32(tvalue.String)).str("mV")
	_, err = parser.DecodeSegment(second.reader(), newListToc)
	require.NoError(t, err)

	properties, ok := parser.Properties("/'g'")
	require.True(t, ok)
	assert.Equal(t, []string{"unit", "gain"}, properties.Keys())

	unit, _ := properties.Get("unit")
	assert.Equal(t, "mV", unit.Data)
	gain, _ := properties.Get("gain")
	assert.Equal(t, 1.0, gain.Data)
}
