package camera

import (
	"path/filepath"
	"sort"

	"github.com/blackjack/webcam"
	"github.com/pkg/errors"
)

// DeviceGlob matches V4L2 video nodes.
const DeviceGlob = "/dev/video*"

// DeviceInfo describes one V4L2 node.
type DeviceInfo struct {
	Path    string       `json:"path"`
	Formats []FormatInfo `json:"formats,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// FormatInfo is a pixel format supported by a device.
type FormatInfo struct {
	FourCC      string   `json:"fourcc"`
	Description string   `json:"description"`
	Sizes       []string `json:"sizes,omitempty"`
}

// ListDevices enumerates the nodes matching pattern and queries their
// formats. Nodes that cannot be opened are returned with Error set.
func ListDevices(pattern string) ([]DeviceInfo, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "bad device pattern %q", pattern)
	}
	sort.Strings(paths)

	devices := make([]DeviceInfo, 0, len(paths))
	for _, path := range paths {
		info := DeviceInfo{Path: path}
		formats, err := queryFormats(path)
		if err != nil {
			info.Error = err.Error()
		}
		info.Formats = formats
		devices = append(devices, info)
	}
	return devices, nil
}

func queryFormats(path string) ([]FormatInfo, error) {
	cam, err := webcam.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can not open %s", path)
	}
	defer cam.Close()

	var formats []FormatInfo
	for code, desc := range cam.GetSupportedFormats() {
		f := FormatInfo{FourCC: FourCC(code), Description: desc}
		for _, size := range cam.GetSupportedFrameSizes(code) {
			f.Sizes = append(f.Sizes, size.GetString())
		}
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i].FourCC < formats[j].FourCC })
	return formats, nil
}
