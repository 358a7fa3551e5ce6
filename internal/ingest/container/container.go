// Package container reads and writes track containers: self-describing binary
// files that group named, typed arrays under slash-separated group paths
// (for track metadata, "metadata/songs" and "analysis/songs").
//
// Layout, little-endian throughout:
//
//	magic "TRK1" | uint16 version | uint32 groupCount
//	group:   uvarint nameLen | name | uint32 datasetCount
//	dataset: uvarint nameLen | name | uint8 dtype | uint32 count | values
//	dtype 1: float64 values, 8 bytes each
//	dtype 2: int64 values, 8 bytes each
//	dtype 3: string values, each uvarint len | bytes
package container

// Dataset element types.
const (
	TypeFloat64 byte = 1
	TypeInt64   byte = 2
	TypeString  byte = 3
)

const (
	magic   = "TRK1"
	version = 1

	// maxCount bounds group, dataset and element counts so a corrupt length
	// prefix cannot drive allocation.
	maxCount = 1 << 20
)

// Dataset is one named, typed array. Exactly one of the value slices is
// populated, matching Type.
type Dataset struct {
	Name    string
	Type    byte
	Floats  []float64
	Ints    []int64
	Strings []string
}

// Group is a named collection of datasets.
type Group struct {
	Name     string
	datasets map[string]*Dataset
}

// Dataset returns the named dataset, or nil if the group does not carry it.
func (g *Group) Dataset(name string) *Dataset {
	if g == nil {
		return nil
	}
	return g.datasets[name]
}

// File is a decoded track container.
type File struct {
	groups map[string]*Group
}

// Group returns the group at the given slash-separated path, or nil.
func (f *File) Group(path string) *Group {
	if f == nil {
		return nil
	}
	return f.groups[path]
}
