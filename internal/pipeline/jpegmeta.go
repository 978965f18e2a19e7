package pipeline

import "bytes"

// JPEG markers relevant to color-space detection. APP2 carries embedded
// ICC profiles (possibly split across several segments); APP14 carries
// Adobe's color-transform flag, which distinguishes YCCK from plain CMYK.
const (
	markerAPP2  = 0xE2
	markerAPP14 = 0xEE
)

var iccSignature = []byte("ICC_PROFILE\x00")
var adobeSignature = []byte("Adobe")

// extractICCProfile scans raw JPEG bytes for one or more APP2 ICC_PROFILE
// segments and reassembles them in chunk order. ok is false when no
// embedded profile is present.
func extractICCProfile(data []byte) (profile []byte, ok bool) {
	type chunk struct {
		seq   byte
		total byte
		data  []byte
	}
	var chunks []chunk

	for _, seg := range jpegSegments(data, markerAPP2) {
		if len(seg) < len(iccSignature)+2 || !bytes.Equal(seg[:len(iccSignature)], iccSignature) {
			continue
		}
		rest := seg[len(iccSignature):]
		chunks = append(chunks, chunk{seq: rest[0], total: rest[1], data: rest[2:]})
	}
	if len(chunks) == 0 {
		return nil, false
	}

	out := make([]byte, 0, len(chunks[0].data)*len(chunks))
	for seq := byte(1); int(seq) <= len(chunks); seq++ {
		found := false
		for _, c := range chunks {
			if c.seq == seq {
				out = append(out, c.data...)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return out, true
}

// adobeTransform reports the transform flag from an Adobe APP14 marker,
// if present: 0 = unknown/RGB or CMYK, 1 = YCbCr, 2 = YCCK.
func adobeTransform(data []byte) (transform byte, ok bool) {
	for _, seg := range jpegSegments(data, markerAPP14) {
		if len(seg) < len(adobeSignature)+1+11 {
			continue
		}
		if !bytes.Equal(seg[:len(adobeSignature)], adobeSignature) {
			continue
		}
		// Adobe APP14 payload: "Adobe" + version(2) + flags0(2) + flags1(2) + transform(1)
		return seg[len(adobeSignature)+6], true
	}
	return 0, false
}

// jpegSegments walks the marker stream of a JPEG and returns the payload
// (excluding the 2-byte length) of every segment matching marker.
func jpegSegments(data []byte, marker byte) [][]byte {
	var out [][]byte
	i := 0
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		m := data[i+1]
		if m == 0xD8 || m == 0x01 || (m >= 0xD0 && m <= 0xD7) {
			i += 2
			continue
		}
		if m == 0xDA || m == 0xD9 {
			break // start of scan / end of image: no more markers worth scanning
		}
		if i+4 > len(data) {
			break
		}
		length := int(data[i+2])<<8 | int(data[i+3])
		if length < 2 || i+2+length > len(data) {
			break
		}
		payload := data[i+4 : i+2+length]
		if m == marker {
			out = append(out, payload)
		}
		i += 2 + length
	}
	return out
}
