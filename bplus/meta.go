package bplus

import "encoding/binary"

// Meta page field offsets (page 0). All fields are fixed-width and
// little-endian; the remainder of the page is zero padding.
const (
	metaOffVersion      = 0
	metaOffRoot         = 8
	metaOffBlobs        = 16
	metaOffFreeList     = 24
	metaOffSnapshots    = 32
	metaOffEndSentinel  = 40
	metaOffRendSentinel = 48
	metaOffNextOffset   = 56

	metaSize = PageSize
)

func GetVersion(meta *Page) uint64 {
	return binary.LittleEndian.Uint64(meta[metaOffVersion : metaOffVersion+8])
}

func SetVersion(meta *Page, v uint64) {
	binary.LittleEndian.PutUint64(meta[metaOffVersion:metaOffVersion+8], v)
}

func GetRoot(meta *Page) int64 {
	return int64(binary.LittleEndian.Uint64(meta[metaOffRoot : metaOffRoot+8]))
}

func SetRoot(meta *Page, offset int64) {
	binary.LittleEndian.PutUint64(meta[metaOffRoot:metaOffRoot+8], uint64(offset))
}

func GetBlobs(meta *Page) int64 {
	return int64(binary.LittleEndian.Uint64(meta[metaOffBlobs : metaOffBlobs+8]))
}

func SetBlobs(meta *Page, offset int64) {
	binary.LittleEndian.PutUint64(meta[metaOffBlobs:metaOffBlobs+8], uint64(offset))
}

func GetFreeList(meta *Page) int64 {
	return int64(binary.LittleEndian.Uint64(meta[metaOffFreeList : metaOffFreeList+8]))
}

func SetFreeList(meta *Page, offset int64) {
	binary.LittleEndian.PutUint64(meta[metaOffFreeList:metaOffFreeList+8], uint64(offset))
}

func GetSnapshots(meta *Page) int64 {
	return int64(binary.LittleEndian.Uint64(meta[metaOffSnapshots : metaOffSnapshots+8]))
}

func SetSnapshots(meta *Page, offset int64) {
	binary.LittleEndian.PutUint64(meta[metaOffSnapshots:metaOffSnapshots+8], uint64(offset))
}

func GetEndSentinel(meta *Page) int64 {
	return int64(binary.LittleEndian.Uint64(meta[metaOffEndSentinel : metaOffEndSentinel+8]))
}

func SetEndSentinel(meta *Page, offset int64) {
	binary.LittleEndian.PutUint64(meta[metaOffEndSentinel:metaOffEndSentinel+8], uint64(offset))
}

func GetRendSentinel(meta *Page) int64 {
	return int64(binary.LittleEndian.Uint64(meta[metaOffRendSentinel : metaOffRendSentinel+8]))
}

func SetRendSentinel(meta *Page, offset int64) {
	binary.LittleEndian.PutUint64(meta[metaOffRendSentinel:metaOffRendSentinel+8], uint64(offset))
}

func GetNextOffset(meta *Page) int64 {
	return int64(binary.LittleEndian.Uint64(meta[metaOffNextOffset : metaOffNextOffset+8]))
}

func SetNextOffset(meta *Page, offset int64) {
	binary.LittleEndian.PutUint64(meta[metaOffNextOffset:metaOffNextOffset+8], uint64(offset))
}
