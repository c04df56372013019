package pdf

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"

	"golang.org/x/image/ccitt"
)

// Decode decodes the stream data through its filter chain. Filter and
// DecodeParms must be direct values; Document.DecodeStream resolves
// references first and is what document-level callers use.
func (s Stream) Decode() ([]byte, error) {
	filters, parms := filterChain(s.Dictionary)
	data := s.Data
	for i, filter := range filters {
		var p Dictionary
		if i < len(parms) {
			p = parms[i]
		}
		decoded, err := applyFilter(data, filter, p, s.Dictionary)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", filter, err)
		}
		data = decoded
	}
	return data, nil
}

// RawImageFilter returns the name of the final filter when it is one the
// image layer decodes itself (DCTDecode), or "" when Decode already
// produced raw samples.
func (s Stream) RawImageFilter() Name {
	filters, _ := filterChain(s.Dictionary)
	if len(filters) == 0 {
		return ""
	}
	last := filters[len(filters)-1]
	if last == "DCTDecode" || last == "DCT" {
		return last
	}
	return ""
}

// filterChain normalizes Filter and DecodeParms to parallel slices.
func filterChain(dict Dictionary) ([]Name, []Dictionary) {
	var filters []Name
	switch f := dict.Get("Filter").(type) {
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			if n, ok := item.(Name); ok {
				filters = append(filters, n)
			}
		}
	}
	if filters == nil {
		// Inline images use the abbreviated key.
		switch f := dict.Get("F").(type) {
		case Name:
			filters = []Name{f}
		case Array:
			for _, item := range f {
				if n, ok := item.(Name); ok {
					filters = append(filters, n)
				}
			}
		}
	}

	parms := make([]Dictionary, len(filters))
	parmsObj := dict.Get("DecodeParms")
	if parmsObj == nil {
		parmsObj = dict.Get("DP")
	}
	switch p := parmsObj.(type) {
	case Dictionary:
		if len(parms) > 0 {
			parms[0] = p
		}
	case Array:
		for i, item := range p {
			if i >= len(parms) {
				break
			}
			if d, ok := item.(Dictionary); ok {
				parms[i] = d
			}
		}
	}
	return filters, parms
}

// applyFilter applies a single filter to decode data. streamDict supplies
// image geometry for CCITT defaults.
func applyFilter(data []byte, filter Name, params, streamDict Dictionary) ([]byte, error) {
	switch filter {
	case "FlateDecode", "Fl":
		return flateDecode(data, params)
	case "LZWDecode", "LZW":
		return lzwDecode(data, params)
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	case "ASCII85Decode", "A85":
		return ascii85Decode(data)
	case "RunLengthDecode", "RL":
		return runLengthDecode(data)
	case "CCITTFaxDecode", "CCF":
		return ccittFaxDecode(data, params, streamDict)
	case "DCTDecode", "DCT":
		// JPEG data stays encoded; the image layer feeds it to image/jpeg.
		return data, nil
	case "JPXDecode", "JBIG2Decode":
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, filter)
	default:
		return nil, fmt.Errorf("unknown filter: %s", filter)
	}
}

// flateDecode decompresses zlib data. Some generators emit raw deflate
// without the zlib header, so that is tried second.
func flateDecode(data []byte, params Dictionary) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	var decoded []byte
	if err == nil {
		decoded, err = io.ReadAll(r)
		r.Close()
	}
	if err != nil {
		fr := flate.NewReader(bytes.NewReader(data))
		decoded, err = io.ReadAll(fr)
		fr.Close()
		if err != nil && len(decoded) == 0 {
			return nil, err
		}
	}
	return applyPredictor(decoded, params)
}

// lzwDecode decodes LZW compressed data
func lzwDecode(data []byte, params Dictionary) ([]byte, error) {
	earlyChange := 1
	if ec, ok := params.GetInt("EarlyChange"); ok {
		earlyChange = int(ec)
	}
	decoded, err := lzwDecompress(data, earlyChange)
	if err != nil {
		return nil, err
	}
	return applyPredictor(decoded, params)
}

// lzwDecompress performs LZW decompression with the PDF bit order
func lzwDecompress(data []byte, earlyChange int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	const (
		clearCode = 256
		eodCode   = 257
	)

	dict := make([][]byte, 4096)
	for i := 0; i < 256; i++ {
		dict[i] = []byte{byte(i)}
	}

	nextCode := 258
	codeSize := 9

	var result []byte
	var prevEntry []byte

	bitPos := 0

	readCode := func() int {
		if bitPos+codeSize > len(data)*8 {
			return eodCode
		}
		code := 0
		for i := 0; i < codeSize; i++ {
			byteIdx := (bitPos + i) / 8
			bitIdx := 7 - (bitPos+i)%8
			if data[byteIdx]&(1<<bitIdx) != 0 {
				code |= 1 << (codeSize - 1 - i)
			}
		}
		bitPos += codeSize
		return code
	}

	for {
		code := readCode()

		if code == eodCode {
			break
		}

		if code == clearCode {
			nextCode = 258
			codeSize = 9
			prevEntry = nil
			continue
		}

		var entry []byte
		if code < nextCode && dict[code] != nil {
			entry = dict[code]
		} else if code == nextCode && prevEntry != nil {
			entry = append(append([]byte{}, prevEntry...), prevEntry[0])
		} else {
			return nil, fmt.Errorf("invalid LZW code: %d", code)
		}

		result = append(result, entry...)

		if prevEntry != nil && nextCode < 4096 {
			dict[nextCode] = append(append([]byte{}, prevEntry...), entry[0])
			nextCode++

			threshold := 1 << codeSize
			if earlyChange == 1 {
				threshold--
			}
			if nextCode > threshold && codeSize < 12 {
				codeSize++
			}
		}

		prevEntry = entry
	}

	return result, nil
}

// applyPredictor reverses the Predictor transform named in the decode
// parameters. Predictor 1 (or none) passes data through, 2 is the TIFF
// horizontal differencing predictor, 10+ are the PNG row filters.
func applyPredictor(data []byte, params Dictionary) ([]byte, error) {
	predictor, ok := params.GetInt("Predictor")
	if !ok || predictor <= 1 {
		return data, nil
	}

	columns := int64(1)
	if c, ok := params.GetInt("Columns"); ok {
		columns = c
	}
	colors := int64(1)
	if c, ok := params.GetInt("Colors"); ok {
		colors = c
	}
	bpc := int64(8)
	if b, ok := params.GetInt("BitsPerComponent"); ok {
		bpc = b
	}

	bytesPerPixel := int((colors*bpc + 7) / 8)
	rowBytes := int((columns*colors*bpc + 7) / 8)

	if predictor == 2 {
		// TIFF predictor, only the 8-bit case occurs in practice.
		if bpc != 8 {
			return data, nil
		}
		for row := 0; row+rowBytes <= len(data); row += rowBytes {
			for i := bytesPerPixel; i < rowBytes; i++ {
				data[row+i] += data[row+i-bytesPerPixel]
			}
		}
		return data, nil
	}

	rowBytesWithFilter := rowBytes + 1
	if rowBytesWithFilter <= 1 || len(data)%rowBytesWithFilter != 0 {
		return data, nil
	}

	rows := len(data) / rowBytesWithFilter
	result := make([]byte, rows*rowBytes)
	prevRow := make([]byte, rowBytes)

	for row := 0; row < rows; row++ {
		srcOffset := row * rowBytesWithFilter
		dstOffset := row * rowBytes
		filterType := data[srcOffset]
		rowData := data[srcOffset+1 : srcOffset+rowBytesWithFilter]

		switch filterType {
		case 0: // None
			copy(result[dstOffset:], rowData)
		case 1: // Sub
			for i := 0; i < rowBytes; i++ {
				left := byte(0)
				if i >= bytesPerPixel {
					left = result[dstOffset+i-bytesPerPixel]
				}
				result[dstOffset+i] = rowData[i] + left
			}
		case 2: // Up
			for i := 0; i < rowBytes; i++ {
				result[dstOffset+i] = rowData[i] + prevRow[i]
			}
		case 3: // Average
			for i := 0; i < rowBytes; i++ {
				left := byte(0)
				if i >= bytesPerPixel {
					left = result[dstOffset+i-bytesPerPixel]
				}
				result[dstOffset+i] = rowData[i] + byte((int(left)+int(prevRow[i]))/2)
			}
		case 4: // Paeth
			for i := 0; i < rowBytes; i++ {
				left := byte(0)
				upLeft := byte(0)
				if i >= bytesPerPixel {
					left = result[dstOffset+i-bytesPerPixel]
					upLeft = prevRow[i-bytesPerPixel]
				}
				result[dstOffset+i] = rowData[i] + paethPredictor(left, prevRow[i], upLeft)
			}
		default:
			copy(result[dstOffset:], rowData)
		}

		copy(prevRow, result[dstOffset:dstOffset+rowBytes])
	}

	return result, nil
}

// paethPredictor implements the Paeth predictor algorithm
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// asciiHexDecode decodes ASCII hex encoded data
func asciiHexDecode(data []byte) ([]byte, error) {
	var result []byte
	var nibble byte
	var hasNibble bool

	for _, b := range data {
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}

		var val byte
		switch {
		case b >= '0' && b <= '9':
			val = b - '0'
		case b >= 'A' && b <= 'F':
			val = b - 'A' + 10
		case b >= 'a' && b <= 'f':
			val = b - 'a' + 10
		default:
			return nil, fmt.Errorf("invalid hex character: %c", b)
		}

		if hasNibble {
			result = append(result, nibble<<4|val)
			hasNibble = false
		} else {
			nibble = val
			hasNibble = true
		}
	}

	if hasNibble {
		result = append(result, nibble<<4)
	}

	return result, nil
}

// ascii85Decode decodes ASCII85 encoded data
func ascii85Decode(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, []byte("<~")) {
		data = data[2:]
	}

	var result []byte
	var tuple uint32
	var count int

	for _, b := range data {
		if b == '~' {
			break
		}
		if isWhitespace(b) {
			continue
		}

		if b == 'z' && count == 0 {
			result = append(result, 0, 0, 0, 0)
			continue
		}

		if b < '!' || b > 'u' {
			return nil, fmt.Errorf("invalid ASCII85 character: %c", b)
		}

		tuple = tuple*85 + uint32(b-'!')
		count++

		if count == 5 {
			result = append(result,
				byte(tuple>>24),
				byte(tuple>>16),
				byte(tuple>>8),
				byte(tuple))
			tuple = 0
			count = 0
		}
	}

	if count > 0 {
		for i := count; i < 5; i++ {
			tuple = tuple*85 + 84
		}
		for i := 0; i < count-1; i++ {
			result = append(result, byte(tuple>>(24-i*8)))
		}
	}

	return result, nil
}

// runLengthDecode decodes run-length encoded data
func runLengthDecode(data []byte) ([]byte, error) {
	var result []byte

	for i := 0; i < len(data); {
		length := int(data[i])
		i++

		if length == 128 {
			break // EOD
		}

		if length < 128 {
			n := length + 1
			if i+n > len(data) {
				return nil, fmt.Errorf("unexpected end of data")
			}
			result = append(result, data[i:i+n]...)
			i += n
		} else {
			if i >= len(data) {
				return nil, fmt.Errorf("unexpected end of data")
			}
			n := 257 - length
			b := data[i]
			i++
			for j := 0; j < n; j++ {
				result = append(result, b)
			}
		}
	}

	return result, nil
}

// ccittFaxDecode decodes CCITT Group 3/4 fax data into 1-bit samples
// following the DeviceGray convention (0 bits are black).
func ccittFaxDecode(data []byte, params, streamDict Dictionary) ([]byte, error) {
	k := int64(0)
	if v, ok := params.GetInt("K"); ok {
		k = v
	}
	columns := int64(1728)
	if v, ok := params.GetInt("Columns"); ok {
		columns = v
	}
	rows := int64(0)
	if v, ok := params.GetInt("Rows"); ok {
		rows = v
	} else if v, ok := streamDict.GetInt("Height"); ok {
		rows = v
	} else if v, ok := streamDict.GetInt("H"); ok {
		rows = v
	}
	blackIs1, _ := params.GetBool("BlackIs1")
	align, _ := params.GetBool("EncodedByteAlign")

	var sf ccitt.SubFormat
	switch {
	case k < 0:
		sf = ccitt.Group4
	case k == 0:
		sf = ccitt.Group3
	default:
		// Mixed 2D Group 3 is not supported by the decoder.
		return nil, fmt.Errorf("%w: CCITTFaxDecode K>0", ErrUnsupportedFilter)
	}

	opts := &ccitt.Options{Invert: blackIs1, Align: align}
	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, int(columns), int(rows), opts)
	decoded, err := io.ReadAll(r)
	if err != nil && len(decoded) == 0 {
		return nil, err
	}
	return decoded, nil
}
