package container

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
)

// Builder assembles a container in memory for Encode or WriteFile. Used by
// the sample-data generator and tests; production ingestion only reads.
type Builder struct {
	groups map[string]*Group
	order  []string
}

func NewBuilder() *Builder {
	return &Builder{groups: make(map[string]*Group)}
}

func (b *Builder) group(path string) *Group {
	g, ok := b.groups[path]
	if !ok {
		g = &Group{Name: path, datasets: make(map[string]*Dataset)}
		b.groups[path] = g
		b.order = append(b.order, path)
	}
	return g
}

// PutFloats sets a float64 dataset at group/name.
func (b *Builder) PutFloats(group, name string, values ...float64) *Builder {
	b.group(group).datasets[name] = &Dataset{Name: name, Type: TypeFloat64, Floats: values}
	return b
}

// PutInts sets an int64 dataset at group/name.
func (b *Builder) PutInts(group, name string, values ...int64) *Builder {
	b.group(group).datasets[name] = &Dataset{Name: name, Type: TypeInt64, Ints: values}
	return b
}

// PutStrings sets a string dataset at group/name.
func (b *Builder) PutStrings(group, name string, values ...string) *Builder {
	b.group(group).datasets[name] = &Dataset{Name: name, Type: TypeString, Strings: values}
	return b
}

// File returns the built container without serializing it.
func (b *Builder) File() *File {
	return &File{groups: b.groups}
}

// Encode serializes the container to w.
func (b *Builder) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(magic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint16(version)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(b.order))); err != nil {
		return err
	}

	for _, path := range b.order {
		if err := encodeGroup(bw, b.groups[path]); err != nil {
			return fmt.Errorf("group %q: %w", path, err)
		}
	}
	return bw.Flush()
}

// WriteFile serializes the container to path.
func (b *Builder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeGroup(w *bufio.Writer, g *Group) error {
	if err := writeString(w, g.Name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(g.datasets))); err != nil {
		return err
	}

	names := make([]string, 0, len(g.datasets))
	for name := range g.datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := encodeDataset(w, g.datasets[name]); err != nil {
			return err
		}
	}
	return nil
}

func encodeDataset(w *bufio.Writer, ds *Dataset) error {
	if err := writeString(w, ds.Name); err != nil {
		return err
	}
	if err := w.WriteByte(ds.Type); err != nil {
		return err
	}

	switch ds.Type {
	case TypeFloat64:
		if err := binary.Write(w, binary.LittleEndian, uint32(len(ds.Floats))); err != nil {
			return err
		}
		for _, v := range ds.Floats {
			if err := binary.Write(w, binary.LittleEndian, math.Float64bits(v)); err != nil {
				return err
			}
		}
	case TypeInt64:
		if err := binary.Write(w, binary.LittleEndian, uint32(len(ds.Ints))); err != nil {
			return err
		}
		for _, v := range ds.Ints {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
	case TypeString:
		if err := binary.Write(w, binary.LittleEndian, uint32(len(ds.Strings))); err != nil {
			return err
		}
		for _, v := range ds.Strings {
			if err := writeString(w, v); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("dataset %q: unknown dtype %d", ds.Name, ds.Type)
	}
	return nil
}

func writeString(w *bufio.Writer, s string) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(s)))
	if _, err := w.Write(buf[:n]); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}
