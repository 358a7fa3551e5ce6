package container

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Open reads and decodes the container at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

// Decode parses one container from r. Any structural defect (bad magic,
// truncated section, unknown dtype, oversized count) fails the whole file.
func Decode(r io.Reader) (*File, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		buffered := bufio.NewReader(r)
		r = buffered
		br = buffered
	}

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(head) != magic {
		return nil, fmt.Errorf("bad magic %q", head)
	}

	var ver uint16
	if err := binary.Read(r, binary.LittleEndian, &ver); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if ver != version {
		return nil, fmt.Errorf("unsupported container version %d", ver)
	}

	groupCount, err := readCount(r, "group count")
	if err != nil {
		return nil, err
	}

	file := &File{groups: make(map[string]*Group, groupCount)}
	for i := uint32(0); i < groupCount; i++ {
		group, err := decodeGroup(r, br)
		if err != nil {
			return nil, err
		}
		file.groups[group.Name] = group
	}
	return file, nil
}

func decodeGroup(r io.Reader, br io.ByteReader) (*Group, error) {
	name, err := readString(r, br)
	if err != nil {
		return nil, fmt.Errorf("read group name: %w", err)
	}

	datasetCount, err := readCount(r, "dataset count")
	if err != nil {
		return nil, err
	}

	group := &Group{Name: name, datasets: make(map[string]*Dataset, datasetCount)}
	for i := uint32(0); i < datasetCount; i++ {
		ds, err := decodeDataset(r, br)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", name, err)
		}
		group.datasets[ds.Name] = ds
	}
	return group, nil
}

func decodeDataset(r io.Reader, br io.ByteReader) (*Dataset, error) {
	name, err := readString(r, br)
	if err != nil {
		return nil, fmt.Errorf("read dataset name: %w", err)
	}

	var dtype byte
	if err := binary.Read(r, binary.LittleEndian, &dtype); err != nil {
		return nil, fmt.Errorf("dataset %q: read dtype: %w", name, err)
	}

	count, err := readCount(r, "element count")
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}

	ds := &Dataset{Name: name, Type: dtype}
	switch dtype {
	case TypeFloat64:
		ds.Floats = make([]float64, count)
		for i := range ds.Floats {
			var bits uint64
			if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
				return nil, fmt.Errorf("dataset %q: read float: %w", name, err)
			}
			ds.Floats[i] = math.Float64frombits(bits)
		}
	case TypeInt64:
		ds.Ints = make([]int64, count)
		for i := range ds.Ints {
			if err := binary.Read(r, binary.LittleEndian, &ds.Ints[i]); err != nil {
				return nil, fmt.Errorf("dataset %q: read int: %w", name, err)
			}
		}
	case TypeString:
		ds.Strings = make([]string, count)
		for i := range ds.Strings {
			s, err := readString(r, br)
			if err != nil {
				return nil, fmt.Errorf("dataset %q: read string: %w", name, err)
			}
			ds.Strings[i] = s
		}
	default:
		return nil, fmt.Errorf("dataset %q: unknown dtype %d", name, dtype)
	}
	return ds, nil
}

func readCount(r io.Reader, what string) (uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, fmt.Errorf("read %s: %w", what, err)
	}
	if n > maxCount {
		return 0, fmt.Errorf("%s %d exceeds limit", what, n)
	}
	return n, nil
}

func readString(r io.Reader, br io.ByteReader) (string, error) {
	n, err := binary.ReadUvarint(br)
	if err != nil {
		return "", err
	}
	if n > maxCount {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
