// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagescrub

// GPSWarning is the value reported for the GPS IFD pointer tag.
// The GPS sub-IFD is never read; the presence of the pointer is the signal.
const GPSWarning = "⚠️ 包含 GPS 定位数据"

// GPSLabel is the label of the GPS IFD pointer tag.
const GPSLabel = "GPS IFD"

const (
	tagMake              = 0x010f
	tagModel             = 0x0110
	tagOrientation       = 0x0112
	tagXResolution       = 0x011a
	tagYResolution       = 0x011b
	tagSoftware          = 0x0131
	tagDateTime          = 0x0132
	tagExifIFDPointer    = 0x8769
	tagGPSInfoIFDPointer = 0x8825
	tagPixelXDimension   = 0xa002
	tagPixelYDimension   = 0xa003
)

type exifField struct {
	Name  string
	Label string
}

// exifFields is the allow list of IFD0 tags we report.
// Tags not in this table are skipped.
var exifFields = map[uint16]exifField{
	tagMake:              {"Make", "相机制造商"},
	tagModel:             {"Model", "相机型号"},
	tagOrientation:       {"Orientation", "方向"},
	tagXResolution:       {"XResolution", "水平分辨率"},
	tagYResolution:       {"YResolution", "垂直分辨率"},
	tagSoftware:          {"Software", "软件"},
	tagDateTime:          {"DateTime", "修改日期"},
	tagExifIFDPointer:    {"ExifIFDPointer", "ExifIFD"},
	tagGPSInfoIFDPointer: {"GPSInfoIFDPointer", GPSLabel},
	tagPixelXDimension:   {"PixelXDimension", "图片宽度"},
	tagPixelYDimension:   {"PixelYDimension", "图片高度"},
}

// LookupField returns the tag name and display label for the given tag ID
// if it is one of the tags we report.
func LookupField(tagID uint16) (name, label string, ok bool) {
	f, ok := exifFields[tagID]
	return f.Name, f.Label, ok
}
